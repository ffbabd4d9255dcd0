// Package metrics exposes the latest watch-mode report as Prometheus
// gauges so long-running sessions can be scraped.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/illenko/redisdoctor/pkg/models"
)

var (
	sectionStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "redisdoctor",
			Name:      "section_status",
			Help:      "Section severity: 0 ok, 1 warning, 2 critical.",
		},
		[]string{"section"},
	)

	reportGauges = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "redisdoctor",
			Name:      "metric_value",
			Help:      "Raw metric values from the latest report.",
		},
		[]string{"section", "metric"},
	)

	iterationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "redisdoctor",
			Name:      "iterations_total",
			Help:      "Completed watch iterations.",
		},
	)

	iterationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "redisdoctor",
			Name:      "iteration_seconds",
			Help:      "Watch iteration latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)
)

// Register attaches the collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		sectionStatus, reportGauges, iterationsTotal, iterationSeconds,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveReport publishes one report's sections and metrics.
func ObserveReport(report *models.Report, duration time.Duration) {
	iterationsTotal.Inc()
	if duration > 0 {
		iterationSeconds.Observe(duration.Seconds())
	}

	names := map[*models.Section]string{
		&report.Memory:      "memory",
		&report.Performance: "performance",
		&report.Connections: "connections",
		&report.Replication: "replication",
	}
	if report.KeyPatterns != nil {
		names[report.KeyPatterns] = "keys"
	}
	for section, name := range names {
		sectionStatus.WithLabelValues(name).Set(severityValue(section.Status))
		for metric, value := range section.Metrics {
			reportGauges.WithLabelValues(name, metric).Set(value)
		}
	}
}

func severityValue(s models.Severity) float64 {
	switch s {
	case models.SeverityCritical:
		return 2
	case models.SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Serve runs a /metrics endpoint until ctx is cancelled.
func Serve(ctx context.Context, addr string) {
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		slog.Error("metrics registration failed", "error", err)
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics endpoint listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("metrics endpoint failed", "error", err)
	}
}
