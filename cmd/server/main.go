package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/api"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/config"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/heretohelp"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/repository/postgres"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/sheets"
)

// checkPortAvailable verifies that the target port is not already in use,
// so a stale process occupying the port fails fast instead of at bind time.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func buildStore(ctx context.Context, cfg *config.Config) (sheets.FileStore, error) {
	if cfg.Sheets.Type == "s3" {
		return sheets.NewS3Store(ctx, sheets.S3Config{
			Bucket:    cfg.Sheets.S3Bucket,
			Region:    cfg.Sheets.S3Region,
			AccessKey: cfg.Sheets.AccessKey,
			SecretKey: cfg.Sheets.SecretKey,
		})
	}
	return sheets.NewLocalStore(), nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway := heretohelp.NewClient(heretohelp.Config{
		BaseURL:        cfg.HereToHelp.BaseURL,
		APIKey:         cfg.HereToHelp.APIKey,
		TimeoutSeconds: cfg.HereToHelp.TimeoutSeconds,
	})

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize sheet store: %v", err)
	}
	log.Printf("Sheet store initialized (%s)", cfg.Sheets.Type)

	var db *sql.DB
	var runRepo *postgres.RunRepo
	if cfg.Database.Enabled {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		runRepo = postgres.NewRunRepo(db)
		if err := runRepo.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate run history table: %v", err)
		}
		log.Println("Run history enabled")
	} else {
		log.Println("Database not configured; run history disabled")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unreachable at %s: %v (run locking degrades to advisory locks)", cfg.Redis.Addr, err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Printf("Redis connected at %s", cfg.Redis.Addr)
		}
	}

	var runs api.RunRecorder
	if runRepo != nil {
		runs = runRepo
	}
	server := api.NewServer(cfg, gateway, store, db, redisClient, runs)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, cfg.Server.Port),
		Handler:      server.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // an ingestion pass can run long
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
