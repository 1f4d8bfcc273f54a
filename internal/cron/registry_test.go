package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryStoresJobs(t *testing.T) {
	registry := NewRegistry()
	sweep := &stubJob{name: "earning-reconciliation"}
	retention := &stubJob{name: "outbox-retention"}
	registry.Register(sweep)
	registry.Register(retention)
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != sweep || jobs[1] != retention {
		t.Fatalf("jobs returned out of order")
	}
	// ensure caller cannot mutate internal slice
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestRegistryNames(t *testing.T) {
	registry := NewRegistry(
		&stubJob{name: "earning-reconciliation"},
		nil,
		&stubJob{name: "outbox-retention"},
	)
	names := registry.Names()
	if len(names) != 2 {
		t.Fatalf("expected nil jobs skipped, got %d names", len(names))
	}
	if names[0] != "earning-reconciliation" || names[1] != "outbox-retention" {
		t.Fatalf("unexpected names %v", names)
	}
}
