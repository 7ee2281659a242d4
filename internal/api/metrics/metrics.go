// Package metrics defines the custom Prometheus metrics of the accounts API.
// All collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "created", "duplicate", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "unknown_email", "wrong_password" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// AuthorizationDenialsTotal counts requests rejected by the authorization
// policy or by authentication.
// Label:
//   - reason: the domain reason code (e.g. "NotAdmin", "SelfDeleteForbidden")
var AuthorizationDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denials_total",
		Help:      "Total number of requests denied, by reason.",
	},
	[]string{"reason"},
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// LifecycleTransitionsTotal counts lifecycle calls that succeeded.
// Labels:
//   - op: "activate", "deactivate", "promote" or "delete"
//   - changed: "true" when state changed, "false" for no-ops
var LifecycleTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_transitions_total",
		Help:      "Total number of account lifecycle transitions, by operation and effect.",
	},
	[]string{"op", "changed"},
)
