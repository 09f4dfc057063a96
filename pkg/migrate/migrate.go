package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
)

// DefaultDir is where create/validate operate on disk.
const DefaultDir = "pkg/migrate/migrations"

// EmbeddedDir selects the migrations compiled into the binary.
const EmbeddedDir = "embedded"

//go:embed migrations/*.sql
var embedded embed.FS

func migrationsFS(dir string) (fs.FS, error) {
	switch dir {
	case "":
		return nil, errors.New("migrations dir is required")
	case EmbeddedDir:
		return fs.Sub(embedded, "migrations")
	default:
		return os.DirFS(dir), nil
	}
}

func newProvider(db *sql.DB, dir string) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	fsys, err := migrationsFS(dir)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectPostgres, db, fsys)
}

// Run applies "up" or "down" (one step), or prints "status", writing a
// line per migration to out.
func Run(ctx context.Context, db *sql.DB, dir, command string, out io.Writer) error {
	p, err := newProvider(db, dir)
	if err != nil {
		return err
	}
	switch command {
	case "up":
		results, err := p.Up(ctx)
		report(out, results)
		return wrapGoose("up", err)
	case "down":
		result, err := p.Down(ctx)
		if result != nil {
			report(out, []*goose.MigrationResult{result})
		}
		return wrapGoose("down", err)
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return wrapGoose("status", err)
		}
		for _, st := range statuses {
			applied := "-"
			if !st.AppliedAt.IsZero() {
				applied = st.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "%-8s %-19s %s\n", st.State, applied, st.Source.Path)
		}
		return nil
	default:
		return fmt.Errorf("unsupported goose command %q", command)
	}
}

// MigrateToVersion moves the schema up or down to target, given as the
// YYYYMMDDHHMMSS prefix of a migration file.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir, target string, out io.Writer) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}
	p, err := newProvider(db, dir)
	if err != nil {
		return err
	}
	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return wrapGoose("version", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == version:
		return nil
	case current < version:
		results, err = p.UpTo(ctx, version)
	default:
		results, err = p.DownTo(ctx, version)
	}
	report(out, results)
	return wrapGoose(fmt.Sprintf("migrate %d -> %d", current, version), err)
}

// AutoMigrate creates the schema from the gorm models. The goose SQL is
// postgres-only, so sqlite and mysql databases are built this way.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db is required")
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func report(out io.Writer, results []*goose.MigrationResult) {
	for _, r := range results {
		fmt.Fprintf(out, "%-4s %s (%s)\n", r.Direction, r.Source.Path, r.Duration.Round(time.Millisecond))
	}
}

func wrapGoose(op string, err error) error {
	if err == nil || errors.Is(err, goose.ErrNoNextVersion) {
		return nil
	}
	return fmt.Errorf("goose %s: %w", op, err)
}
