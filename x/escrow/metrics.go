package escrow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/capability"
)

// Metrics counts escrow operations. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	authorize   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custody",
			Subsystem: "escrow",
			Name:      "transitions_total",
			Help:      "Number of successful escrow operations.",
		}, []string{"operation"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custody",
			Subsystem: "escrow",
			Name:      "rejections_total",
			Help:      "Number of rejected escrow operations by reason.",
		}, []string{"operation", "reason"}),
		authorize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "custody",
			Subsystem: "escrow",
			Name:      "authorize_duration_seconds",
			Help:      "Time spent waiting for the authorization context.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action", "result"}),
	}
	reg.MustRegister(m.transitions, m.rejections, m.authorize)
	return m
}

func (m *Metrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.transitions.WithLabelValues(operation).Inc()
		return
	}
	m.rejections.WithLabelValues(operation, rejectionReason(err)).Inc()
}

func (m *Metrics) observeAuthorize(action string, allowed bool, err error, took time.Duration) {
	if m == nil {
		return
	}
	result := "deny"
	switch {
	case err != nil:
		result = "error"
	case allowed:
		result = "allow"
	}
	m.authorize.WithLabelValues(action, result).Observe(took.Seconds())
}

var reasons = []struct {
	kind *errors.Error
	name string
}{
	{errors.ErrInvalidState, "invalid_state"},
	{errors.ErrUnauthorized, "unauthorized"},
	{capability.ErrCapabilityMismatch, "capability_mismatch"},
	{errors.ErrInsufficientAmount, "insufficient_amount"},
	{ErrNoFunds, "no_funds"},
	{errors.ErrAssetType, "asset_type"},
	{errors.ErrNotFound, "not_found"},
}

func rejectionReason(err error) string {
	for _, r := range reasons {
		if r.kind.Is(err) {
			return r.name
		}
	}
	return "other"
}
