package metrics

import (
	"context"
	"net"
	"net/http"

	"go.uber.org/fx"

	"github.com/gefpower/windprep/internal/core/config"
	"github.com/gefpower/windprep/internal/support/logger"
)

// NewMetricRecorder builds the MetricRecorder selected by the configuration:
// a PrometheusRecorder when metrics are enabled, otherwise the no-op
// fallback.
func NewMetricRecorder(cfg *config.Config) MetricRecorder {
	if cfg.Windprep.Metrics.Enabled {
		return NewPrometheusRecorder()
	}
	return NewNoOpMetricRecorder()
}

// startExporter exposes /metrics over HTTP when a Prometheus recorder is in
// use and a listen address is configured.
func startExporter(lc fx.Lifecycle, cfg *config.Config, recorder MetricRecorder) {
	promRecorder, ok := recorder.(*PrometheusRecorder)
	if !ok || cfg.Windprep.Metrics.ListenAddress == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promRecorder.Handler())
	server := &http.Server{Addr: cfg.Windprep.Metrics.ListenAddress, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}
			logger.Infof("Metrics exporter listening on %s", server.Addr)
			go func() {
				if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Errorf("Metrics exporter stopped: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

// Module is an Fx module that provides the configured MetricRecorder and
// optionally exposes it over HTTP.
var Module = fx.Options(
	fx.Provide(NewMetricRecorder),
	fx.Invoke(startExporter),
)
