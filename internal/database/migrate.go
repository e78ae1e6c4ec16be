package database

import (
	"embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"inkwell/internal/middleware"
)

// Migration is one versioned schema change with its forward and reverse SQL.
// Files are named NNNNNN_name.up.sql / NNNNNN_name.down.sql and every up
// script must have a matching down script.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

//go:embed migrations/*.sql
var embeddedSQL embed.FS

var migrations []Migration

func init() {
	if err := RegisterMigrations(embeddedSQL); err != nil {
		middleware.Logger.Error("Embedded migrations are broken", slog.String("error", err.Error()))
	}
}

// RegisterMigrations loads every migration pair from the filesystem into the
// package registry, sorted by version.
func RegisterMigrations(efs embed.FS) error {
	entries, err := efs.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		version, name, ok := parseMigrationName(entry.Name())
		if !ok {
			middleware.Logger.Warn("Ignoring badly named migration file", slog.String("file", entry.Name()))
			continue
		}

		up, err := efs.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		downName := strings.TrimSuffix(entry.Name(), ".up.sql") + ".down.sql"
		down, err := efs.ReadFile(filepath.Join("migrations", downName))
		if err != nil {
			return fmt.Errorf("migration %06d_%s has no down script: %w", version, name, err)
		}

		migrations = append(migrations, Migration{
			Version:    version,
			Name:       name,
			UpScript:   string(up),
			DownScript: string(down),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return nil
}

// parseMigrationName splits "000001_init_schema.up.sql" into (1, "init_schema").
func parseMigrationName(file string) (version int, name string, ok bool) {
	base := strings.TrimSuffix(file, ".up.sql")
	prefix, rest, found := strings.Cut(base, "_")
	if !found || rest == "" {
		return 0, "", false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return 0, "", false
	}
	return version, rest, true
}

// GetMigrations returns every registered migration in version order.
func GetMigrations() []Migration {
	return migrations
}

// GetMigrationByVersion returns the registered migration with the given
// version, or nil.
func GetMigrationByVersion(version int) *Migration {
	for _, m := range migrations {
		if m.Version == version {
			return &m
		}
	}
	return nil
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}
