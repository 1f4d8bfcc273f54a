package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vendalink/affiliates-backend/api/responses"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/logger"
)

// maxSniffBytes caps how much of the body the limiter reads when it
// needs the store_id. Order events are small; anything larger is
// rejected downstream by the body validator anyway.
const maxSniffBytes = 64 << 10

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// WebhookRateLimitPolicy bounds how often a caller may hit a webhook
// surface inside a fixed window. The IP limit guards against a single
// misbehaving host; the store limit guards against one store's order
// stream starving the rest.
type WebhookRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int64
	storeLimit int64
}

// NewWebhookRateLimitPolicy builds a policy. A limit of zero disables
// that dimension.
func NewWebhookRateLimitPolicy(name string, window time.Duration, ipLimit, storeLimit int) WebhookRateLimitPolicy {
	return WebhookRateLimitPolicy{
		name:       strings.TrimSpace(name),
		window:     window,
		ipLimit:    int64(ipLimit),
		storeLimit: int64(storeLimit),
	}
}

// WebhookRateLimit enforces the policy with fixed-window counters in
// Redis. On limiter errors the request is let through; dropping order
// events over a counter outage is worse than briefly over-admitting.
func WebhookRateLimit(policy WebhookRateLimitPolicy, limiter fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || policy.window <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if policy.ipLimit > 0 {
				scope := policy.name + ":ip:" + clientIP(r)
				if blocked(ctx, limiter, logg, policy, scope) {
					respondRateLimited(ctx, logg, w, policy.window)
					return
				}
			}

			if policy.storeLimit > 0 {
				storeID, restoreErr := sniffStoreID(r)
				if restoreErr != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, restoreErr, "read request body"))
					return
				}
				if storeID != "" {
					scope := policy.name + ":store:" + storeID
					if blockedBy(ctx, limiter, logg, policy, scope, policy.storeLimit) {
						respondRateLimited(ctx, logg, w, policy.window)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func blocked(ctx context.Context, limiter fixedWindowLimiter, logg *logger.Logger, policy WebhookRateLimitPolicy, scope string) bool {
	return blockedBy(ctx, limiter, logg, policy, scope, policy.ipLimit)
}

func blockedBy(ctx context.Context, limiter fixedWindowLimiter, logg *logger.Logger, policy WebhookRateLimitPolicy, scope string, limit int64) bool {
	allowed, count, err := limiter.FixedWindowAllow(ctx, scope, limit, policy.window)
	if err != nil {
		if logg != nil {
			logg.Error(logg.WithField(ctx, "scope", scope), "webhook.rate_limit.counter_error", err)
		}
		return false
	}
	if allowed {
		return false
	}
	if logg != nil {
		fields := map[string]any{
			"policy": policy.name,
			"scope":  scope,
			"count":  count,
			"limit":  limit,
		}
		logg.Warn(logg.WithFields(ctx, fields), "webhook.rate_limit.blocked")
	}
	return true
}

// sniffStoreID peeks at the JSON body for a store_id field and puts the
// body back so the handler can decode it again. A body without the
// field passes through unlimited; validation rejects it later.
func sniffStoreID(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSniffBytes))
	if err != nil {
		return "", err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	var probe struct {
		StoreID string `json:"store_id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return "", nil
	}
	return strings.TrimSpace(probe.StoreID), nil
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, window time.Duration) {
	retryAfter := int(window.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, retry later"))
}

// clientIP resolves the caller address, preferring proxy headers set
// by the ingress layer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
