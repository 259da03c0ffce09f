// balance-server exposes the simulator over HTTP with an SQLite-backed run
// archive.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aldenhart/dungeon-balance-go/internal/api"
	"github.com/aldenhart/dungeon-balance-go/internal/config"
	"github.com/aldenhart/dungeon-balance-go/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	var db store.DB
	if cfg.DBPath != "" {
		sqldb, err := store.NewSQLiteDB(cfg.DBPath)
		if err != nil {
			logger.Fatalf("open archive: %v", err)
		}
		defer sqldb.Close()
		if err := sqldb.Migrate(); err != nil {
			logger.Fatalf("migrate archive: %v", err)
		}
		db = sqldb
		logger.Printf("run archive at %s", cfg.DBPath)
	} else {
		logger.Print("run archive disabled (set BALANCE_DB_PATH to enable)")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(db).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Printf("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Print("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}
