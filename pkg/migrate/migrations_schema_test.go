package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestCoreMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_affiliate_core.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS stores",
		"CHECK (maturity_days >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_affiliates_email",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_store_affiliates_pair",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_coupons_store_code",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_coupon_affiliates_pair",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_commission_rules_target",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestLedgerMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_earnings_and_withdrawals.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS affiliate_earnings",
		"CHECK (commission_amount >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_affiliate_earnings_order_link",
		"CREATE TABLE IF NOT EXISTS withdrawal_requests",
		"CHECK (amount > 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_withdrawal_requests_single_pending",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_outbox.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"CREATE INDEX IF NOT EXISTS idx_outbox_events_unpublished",
		"CREATE TABLE IF NOT EXISTS outbox_dlq",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
