// Package metrics defines the service's Prometheus metrics. It is the single
// source of truth for metric names, labels, and help strings. Metrics register
// with the default registry at init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "access_service"

// AccountsProvisionedTotal counts successful account creations.
// Label:
//   - mode: "password" (immediately usable) or "invite" (pending acceptance)
var AccountsProvisionedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_provisioned_total",
		Help:      "Total number of accounts provisioned, by mode.",
	},
	[]string{"mode"},
)

// ProvisioningErrorsTotal counts failed provisioning attempts.
// Label:
//   - kind: "validation", "duplicate" or "provider"
var ProvisioningErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provisioning_errors_total",
		Help:      "Total number of provisioning attempts that failed.",
	},
	[]string{"kind"},
)

// AccountMutationsTotal counts administrative mutations on existing accounts.
// Label:
//   - action: "update", "suspend", "reactivate", "delete", "resend_invite", "password_reset"
var AccountMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_mutations_total",
		Help:      "Total number of administrative account mutations, by action.",
	},
	[]string{"action"},
)

// AccessDecisionsTotal counts guard outcomes served over HTTP.
// Label:
//   - decision: "allow", "deny" or "pending"
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Total number of access check decisions, by outcome.",
	},
	[]string{"decision"},
)
