// Package main applies the SQL migrations in MIGRATIONS_PATH.
//
//	migrate up         apply every pending migration
//	migrate down [n]   roll back n migrations (default 1)
//	migrate version    print the current version
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"resido/internal/config"
	"resido/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger("resido-migrate"))
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	source, err := filepath.Abs(cfg.MigrationsPath)
	if err != nil {
		log.Fatalw("invalid migrations path", "path", cfg.MigrationsPath, "error", err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(source), databaseURL(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to open migrations", "error", err)
	}
	defer m.Close()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil || steps < 1 {
				log.Fatalw("down takes a positive step count", "value", os.Args[2])
			}
		}
		err = m.Steps(-steps)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Fatalw("failed to read version", "error", verr)
		}
		log.Infow("migration version", "version", version, "dirty", dirty)
		return
	default:
		log.Fatalw("unknown command", "command", cmd)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalw("migration failed", "command", cmd, "error", err)
	}
	log.Infow("migrations applied", "command", cmd)
}

// databaseURL rewrites a postgres:// DSN to the pgx5:// scheme the driver registers.
func databaseURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}
