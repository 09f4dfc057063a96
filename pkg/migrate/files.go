package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	versionLayout = "20060102150405"
	upMarker      = "-- +goose Up"
	downMarker    = "-- +goose Down"
	stmtBegin     = "-- +goose StatementBegin"
	stmtEnd       = "-- +goose StatementEnd"
)

const skeleton = upMarker + `
` + stmtBegin + `
-- %[1]s
` + stmtEnd + `

` + downMarker + `
` + stmtBegin + `
-- rollback %[1]s
` + stmtEnd + `
`

// slug lowercases name and collapses anything outside [a-z0-9] into single
// underscores.
func slug(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// parseVersion splits "<14 digits>_<slug>.sql" and returns the version.
func parseVersion(name string) (int64, bool) {
	base, ok := strings.CutSuffix(name, ".sql")
	if !ok {
		return 0, false
	}
	version, rest, ok := strings.Cut(base, "_")
	if !ok || len(version) != len(versionLayout) || rest == "" || slug(rest) != rest {
		return 0, false
	}
	if _, err := time.Parse(versionLayout, version); err != nil {
		return 0, false
	}
	v, err := strconv.ParseInt(version, 10, 64)
	return v, err == nil
}

// CreateSQLMigration writes an empty goose migration named
// <dir>/<UTC timestamp>_<slug>.sql and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", errors.New("dir is required")
	}
	s := slug(name)
	if s == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	full := filepath.Join(dir, time.Now().UTC().Format(versionLayout)+"_"+s+".sql")
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	if _, err := fmt.Fprintf(f, skeleton, s); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write migration %q: %w", full, err)
	}
	return full, f.Close()
}

// ValidateDir checks the migrations in an on-disk directory.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateFS checks every .sql file under dir in fsys: filenames must carry
// a unique timestamp version, and each file needs both goose sections with
// balanced statement blocks.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read migrations %q: %w", dir, err)
	}

	versions := make(map[int64]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, ok := parseVersion(name)
		if !ok {
			return fmt.Errorf("migration %q: want YYYYMMDDHHMMSS_name.sql", name)
		}
		if prev, dup := versions[version]; dup {
			return fmt.Errorf("migrations %q and %q share version %d", prev, name, version)
		}
		versions[version] = name

		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %q: %w", name, err)
		}
		if err := checkSections(string(body)); err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
	}
	if len(versions) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	return nil
}

func checkSections(body string) error {
	up := strings.Index(body, upMarker)
	down := strings.Index(body, downMarker)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", upMarker)
	case down < 0:
		return fmt.Errorf("missing %q", downMarker)
	case down < up:
		return errors.New("down section precedes up section")
	}
	if begins, ends := strings.Count(body, stmtBegin), strings.Count(body, stmtEnd); begins != ends {
		return fmt.Errorf("%d StatementBegin markers but %d StatementEnd", begins, ends)
	}
	return nil
}
