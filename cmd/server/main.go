package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/diewo77/icash/internal/config"
	"github.com/diewo77/icash/internal/db"
	"github.com/diewo77/icash/internal/importer"
	"github.com/diewo77/icash/internal/server"
)

var schemaOnlyFlag = flag.Bool("schema-only", false, "Ensure the DB schema and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := db.EnsureSchema(conn); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	if *schemaOnlyFlag {
		log.Println("schema ensured; exiting as requested")
		return
	}

	if err := bootstrap(conn, cfg); err != nil {
		log.Fatalf("bootstrap import: %v", err)
	}

	log.Printf("Starting server env=%s port=%s", cfg.Env, cfg.Port)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: server.New(conn)}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// bootstrap seeds the store from the configured CSV sources. When the files
// are absent the service starts against whatever the store already holds;
// the importer itself is a no-op on populated tables either way.
func bootstrap(conn *gorm.DB, cfg config.Config) error {
	products, err := os.Open(cfg.ProductsCSV)
	if err != nil {
		log.Printf("bootstrap sources unavailable (%v); skipping import", err)
		return nil
	}
	defer products.Close()
	history, err := os.Open(cfg.PurchasesCSV)
	if err != nil {
		log.Printf("bootstrap sources unavailable (%v); skipping import", err)
		return nil
	}
	defer history.Close()
	return importer.New(conn).SeedIfEmpty(products, history)
}
