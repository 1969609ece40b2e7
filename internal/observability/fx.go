package observability

import (
	"github.com/smallbiznis/coldchain/internal/config"
	"github.com/smallbiznis/coldchain/internal/observability/metrics"
	"github.com/smallbiznis/coldchain/pkg/log"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	log.Module,
	fx.Provide(
		provideMetricsConfig,
		metrics.New,
	),
	fx.Invoke(ensureScannerMetrics),
)

func provideMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
	}
}

func ensureScannerMetrics(cfg metrics.Config) {
	metrics.ScannerWithConfig(cfg)
}
