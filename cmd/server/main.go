package main

import (
	"log"
	"net/http"

	"github.com/leocostarj22/happiness/internal/config"
	"github.com/leocostarj22/happiness/internal/db"
	"github.com/leocostarj22/happiness/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	store := db.NewStore(conn)
	if err := store.StartupSweep(); err != nil {
		log.Fatalf("startup sweep failed: %v", err)
	}

	srv := server.New(store, cfg)
	addr := ":" + cfg.Port
	log.Printf("server listening addr=%s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
