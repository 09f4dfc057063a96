package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/playdepot/playdepot-backend/pkg/config"
	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/logger"
	"github.com/playdepot/playdepot-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

// offline commands work on migration files and never open the database.
var offline = map[string]func(opts options) error{
	"create": func(opts options) error {
		if opts.name == "" {
			return errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(diskDir(opts.dir), opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(opts options) error {
		if err := migrate.ValidateDir(diskDir(opts.dir)); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	},
}

// goose commands run against postgres.
var goose = map[string]func(ctx context.Context, sqlDB *sql.DB, opts options) error{
	"up":     gooseRun("up"),
	"down":   gooseRun("down"),
	"status": gooseRun("status"),
	"version": func(ctx context.Context, sqlDB *sql.DB, opts options) error {
		if opts.version == "" {
			return errors.New("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version, os.Stdout)
	},
}

func gooseRun(command string) func(context.Context, *sql.DB, options) error {
	return func(ctx context.Context, sqlDB *sql.DB, opts options) error {
		return migrate.Run(ctx, sqlDB, opts.dir, command, os.Stdout)
	}
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate|auto")
	flag.StringVar(&opts.dir, "dir", migrate.EmbeddedDir, "goose migrations directory, or \"embedded\" for the compiled-in set")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate -cmd=%s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if fn, ok := offline[opts.cmd]; ok {
		return fn(opts)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	driver := cfg.DB.NormalizedDriver()
	if opts.cmd == "auto" || driver != config.DriverPostgres {
		if opts.cmd != "up" && opts.cmd != "auto" {
			return fmt.Errorf("requires postgres; use -cmd=auto for %s", driver)
		}
		logg.Info(ctx, "running gorm auto-migrate")
		return migrate.AutoMigrate(dbClient.DB().WithContext(ctx))
	}

	fn, ok := goose[opts.cmd]
	if !ok {
		return fmt.Errorf("unknown command %q", opts.cmd)
	}
	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}
	logg.Info(ctx, "running goose migration")
	return fn(ctx, sqlDB, opts)
}

func diskDir(dir string) string {
	if dir == migrate.EmbeddedDir {
		return migrate.DefaultDir
	}
	return dir
}
