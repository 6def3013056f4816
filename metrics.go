package projectauth

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels.
const (
	opRegister        = "register"
	opLogin           = "login"
	opRefresh         = "refresh"
	opLogout          = "logout"
	opRecoveryRequest = "recovery_request"
	opPasswordReset   = "password_reset"
	opFederatedLogin  = "federated_login"
	opAuthenticate    = "authenticate"
)

const outcomeSuccess = "success"

// Metrics holds the Engine's Prometheus collectors.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg when non-nil. Collectors
// already registered on reg by another Engine are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projectauth_operations_total",
				Help: "Total number of auth operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "projectauth_operation_duration_seconds",
				Help:    "Auth operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.OperationsTotal, err = register(reg, m.OperationsTotal); err != nil {
		return nil, err
	}
	if m.OperationDuration, err = register(reg, m.OperationDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// observe records one operation outcome. outcome is outcomeSuccess or the error code of
// the returned error.
func (m *Metrics) observe(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = ErrorCode(err)
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (e *Engine) observe(operation string, started time.Time, err error) {
	if e == nil {
		return
	}
	e.metrics.observe(operation, started, err)
}
