// Package metrics defines and registers all custom Prometheus metrics for the
// credential vault API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors are registered with the default Prometheus registry through
// promauto when the package is loaded; /metrics serves them next to the
// echoprometheus request metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

const namespace = "credvault"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register and login attempts.
// Labels:
//   - op: "register" or "login"
//   - result: see Result
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of register and login attempts, by outcome.",
	},
	[]string{"op", "result"},
)

// TokenRejectionsTotal counts bearer tokens refused by the auth middleware.
// Label:
//   - reason: "missing", "invalid" or "expired"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of requests rejected for a missing, invalid or expired token.",
	},
	[]string{"reason"},
)

// ── Credential metrics ────────────────────────────────────────────────────────

// CredentialOpsTotal counts credential operations.
// Labels:
//   - op: "create", "list", "reveal", "update" or "delete"
//   - result: see Result
var CredentialOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_ops_total",
		Help:      "Total number of credential operations, by outcome.",
	},
	[]string{"op", "result"},
)

// Result collapses an operation error into a low-cardinality label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "rejected"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAccountNotFound):
		return "not_found"
	default:
		return "error"
	}
}
