package metrics

import (
	"context"
	"net/http"

	"github.com/karmafleet/allianceledger/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func registerInstrumentation(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) {
	RunsWithConfig(Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Warn("metrics listener stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("metrics",
	fx.Invoke(registerInstrumentation),
)
