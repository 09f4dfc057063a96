package migrate

import (
	"context"
	"fmt"
	"io"

	"github.com/playdepot/playdepot-backend/pkg/config"
	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/logger"
)

// MaybeRunDev builds the schema automatically when the app is running in dev
// mode and the feature flag is enabled. Postgres goes through goose, other
// drivers through AutoMigrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	driver := cfg.DB.NormalizedDriver()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": driver})

	if driver != config.DriverPostgres {
		logg.Info(ctx, "running gorm auto-migrate (dev auto-run)")
		if err := AutoMigrate(client.DB().WithContext(ctx)); err != nil {
			return err
		}
		logg.Info(ctx, "gorm auto-migrate completed")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running Goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, EmbeddedDir, "up", io.Discard); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
