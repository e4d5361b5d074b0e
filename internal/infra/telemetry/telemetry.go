package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/karahan-cpu/martek-marina/internal/infra/config"
)

// Provider represents a telemetry provider handle. Request-level HTTP
// metrics live in the middleware package; the provider carries the
// domain counters shared across handlers.
type Provider struct {
	verifications *prometheus.CounterVec
}

// Attach configures telemetry exporters and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	verifications := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marina",
		Name:      "access_verifications_total",
		Help:      "Access verification attempts by result",
	}, []string{"result"})

	return &Provider{verifications: verifications}, nil
}

// Verification results recorded on the access verification counter.
const (
	ResultGranted   = "granted"
	ResultRejected  = "rejected"
	ResultLockedOut = "locked_out"
	ResultMalformed = "malformed"
	ResultError     = "error"
)

// CountVerification records one access verification outcome.
func (p *Provider) CountVerification(result string) {
	if p == nil || p.verifications == nil {
		return
	}
	p.verifications.WithLabelValues(result).Inc()
}
