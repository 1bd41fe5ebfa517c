// Package metrics exports outbound call metrics to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/youwol/backends/pkg/rest"
)

const namespace = "youwol"

// Collector counts and times calls issued by rest.Executor.
type Collector struct {
	requests *promclient.CounterVec
	duration *promclient.HistogramVec
}

// New registers metrics to reg.
//
// When reg is nil, prometheus.DefaultRegisterer is used.
// When metrics are registered already, they are shared.
func New(reg promclient.Registerer) (*Collector, error) {
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}
	requests, err := register(reg, promclient.NewCounterVec(promclient.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Count of requests to backend services. code is 0 when no response is received.",
	}, []string{"service", "method", "code"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, promclient.NewHistogramVec(promclient.HistogramOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Latency of requests to backend services, until response headers are received.",
		Buckets:   promclient.DefBuckets,
	}, []string{"service", "method"}))
	if err != nil {
		return nil, err
	}
	return &Collector{requests: requests, duration: duration}, nil
}

func register[C promclient.Collector](reg promclient.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	are := promclient.AlreadyRegisteredError{}
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("registering metrics: %w", err)
}

func (c *Collector) Observe(service string, method string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(service, method, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(service, method).Observe(elapsed.Seconds())
}

// Handler serves metrics gathered by g in the exposition format.
func Handler(g promclient.Gatherer) http.Handler {
	if g == nil {
		g = promclient.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ rest.Observer = (*Collector)(nil)
