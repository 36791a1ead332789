package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ProvidersRegistered prometheus.Counter
	ProvidersApproved   prometheus.Counter
	AccessGranted       prometheus.Counter
	AccessRevoked       prometheus.Counter
	RecordsAdded        prometheus.Counter
	AuthorizationDenied *prometheus.CounterVec
	EventsAppended      prometheus.Counter
}

// New creates and registers all metrics against the given registerer.
// Passing a fresh registry keeps tests isolated from each other.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProvidersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthchain_providers_registered_total",
			Help: "Total number of provider registration requests accepted",
		}),
		ProvidersApproved: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthchain_providers_approved_total",
			Help: "Total number of providers approved by the registry owner",
		}),
		AccessGranted: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthchain_access_granted_total",
			Help: "Total number of access grants applied",
		}),
		AccessRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthchain_access_revoked_total",
			Help: "Total number of access revocations applied",
		}),
		RecordsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthchain_records_added_total",
			Help: "Total number of records appended to the ledger",
		}),
		AuthorizationDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healthchain_authorization_denied_total",
			Help: "Total number of mutations rejected by the authorization guard",
		}, []string{"action"}),
		EventsAppended: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthchain_events_appended_total",
			Help: "Total number of events appended to the event log",
		}),
	}
}

// IncDenied records a guard rejection for the given action.
func (m *Metrics) IncDenied(action string) {
	if m != nil {
		m.AuthorizationDenied.WithLabelValues(action).Inc()
	}
}
