package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const migrationsDir = "db/migrations"

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// migrate-create stamps a pair of empty up/down migration files so new
// schema changes land in version order next to the existing ones.
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate-create <snake_case_name>")
		os.Exit(2)
	}
	name := os.Args[1]
	if !namePattern.MatchString(name) {
		log.Fatalf("migration name must be snake_case, got %q", name)
	}

	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		log.Fatalf("create migrations dir: %v", err)
	}

	stamp := time.Now().UTC().Format("20060102150405")
	for _, direction := range []string{"up", "down"} {
		path := filepath.Join(migrationsDir, fmt.Sprintf("%s_%s.%s.sql", stamp, name, direction))
		if _, err := os.Stat(path); err == nil {
			log.Fatalf("refusing to overwrite %s", path)
		}
		header := fmt.Sprintf("-- %s (%s)\n", name, direction)
		if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
			log.Fatalf("write %s: %v", path, err)
		}
		log.Printf("created %s", path)
	}
}
