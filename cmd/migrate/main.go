package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"invoicer/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	down := flag.Bool("down", false, "roll back every applied migration")
	steps := flag.Int("steps", 0, "apply (or with -down, revert) only this many migrations")
	dir := flag.String("dir", "migrations", "directory holding the .up.sql and .down.sql files")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}
	cfg := config.Load()

	m, err := migrate.New("file://"+*dir, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open migrations: %v", err)
	}
	defer m.Close()

	switch {
	case *steps > 0 && *down:
		err = m.Steps(-*steps)
	case *steps > 0:
		err = m.Steps(*steps)
	case *down:
		err = m.Down()
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration failed: %v", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatalf("failed to read schema version: %v", err)
	}
	log.Printf("schema at version %d (dirty=%t)", version, dirty)
}
