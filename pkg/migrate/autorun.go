package migrate

import (
	"context"
	"fmt"

	"github.com/jirivrbic-boss/extroworld/pkg/config"
	"github.com/jirivrbic-boss/extroworld/pkg/db"
	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

type autoMode int

const (
	autoSkip autoMode = iota
	autoModels
	autoGoose
)

// autoModeFor decides how the api brings its schema up at boot. Only dev
// environments with EXTRO_AUTO_MIGRATE migrate themselves; everywhere else
// the migrate command owns the schema.
func autoModeFor(cfg *config.Config, driver string) autoMode {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return autoSkip
	}
	if driver == db.DriverSQLite {
		return autoModels
	}
	return autoGoose
}

// MaybeRunDev migrates a dev database at boot. Postgres runs goose up from
// DefaultDir; sqlite gets its tables from the gorm models.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	mode := autoModeFor(cfg, client.Driver())
	if mode == autoSkip {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"driver": client.Driver(), "dir": DefaultDir})

	switch mode {
	case autoModels:
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("sync sqlite schema: %w", err)
		}
	case autoGoose:
		sqlDB, err := client.DB().DB()
		if err != nil {
			return fmt.Errorf("sql handle: %w", err)
		}
		if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
			return err
		}
	}
	logg.Info(ctx, "schema migrated at boot")
	return nil
}
