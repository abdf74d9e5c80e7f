// Package telemetry installs the process-wide metrics sink and serves it for
// Prometheus scraping.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/armon/go-metrics"
	gmprometheus "github.com/armon/go-metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ServiceName prefixes every metric key.
const ServiceName = "pendingscope"

// Telemetry owns the global sink and its Prometheus registry.
type Telemetry struct {
	Inmem    *metrics.InmemSink
	registry *prometheus.Registry
}

// Setup replaces the global go-metrics sink with an in-memory sink fanned out
// to a Prometheus sink.
func Setup(runtimeMetrics bool) (*Telemetry, error) {
	inm := metrics.NewInmemSink(10*time.Second, time.Minute)
	registry := prometheus.NewRegistry()

	promSink, err := gmprometheus.NewPrometheusSinkFrom(gmprometheus.PrometheusOpts{
		Name:       "pendingscope_prometheus_sink",
		Registerer: registry,
		Expiration: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("create prometheus sink: %w", err)
	}

	conf := metrics.DefaultConfig(ServiceName)
	conf.EnableHostname = false
	conf.EnableRuntimeMetrics = runtimeMetrics
	if _, err := metrics.NewGlobal(conf, metrics.FanoutSink{inm, promSink}); err != nil {
		return nil, fmt.Errorf("install metrics: %w", err)
	}
	return &Telemetry{Inmem: inm, registry: registry}, nil
}

// Handler exposes the Prometheus registry.
func (t *Telemetry) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{}))
	return mux
}

// Serve listens on addr until ctx is cancelled.
func (t *Telemetry) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{Addr: addr, Handler: t.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("metrics server start", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Counter returns the current interval's total for a counter key such as
// "pending.fetched".
func (t *Telemetry) Counter(key string) float64 {
	data := t.Inmem.Data()
	if len(data) == 0 {
		return 0
	}
	current := data[len(data)-1]
	current.RLock()
	defer current.RUnlock()
	if v, ok := current.Counters[ServiceName+"."+key]; ok {
		return v.Sum
	}
	return 0
}
