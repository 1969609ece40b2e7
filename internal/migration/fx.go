package migration

import (
	"github.com/smallbiznis/coldchain/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migration",
	fx.Invoke(runOnStartup),
)

func runOnStartup(cfg config.Config, conn *gorm.DB, log *zap.Logger) error {
	// golang-migrate sources are written for postgres; other dialects are
	// expected to be migrated out of band.
	if cfg.DBType != "postgres" {
		log.Warn("skipping migrations for non-postgres database", zap.String("db_type", cfg.DBType))
		return nil
	}
	return Run(conn, log.Named("migration"))
}
