// Package api exposes the ingestion service over HTTP: a health endpoint,
// per-workflow trigger endpoints, and run history.
package api

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/config"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/ingest"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/pkg/distlock"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/repository/postgres"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/sheets"
)

// Generous upper bound; a run over a full inbound folder normally takes
// minutes, and Redis expiry reclaims the lock if the process dies mid-run.
const lockTTL = 30 * time.Minute

// RunRecorder persists run history. Nil-able; the service works without a
// database, it just loses history.
type RunRecorder interface {
	Insert(ctx context.Context, run *postgres.Run) error
	List(ctx context.Context, workflow string, limit int) ([]postgres.Run, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	cfg     *config.Config
	gateway ingest.Gateway
	store   sheets.FileStore
	runs    RunRecorder

	db          *sql.DB
	redisClient *redis.Client
	startTime   time.Time

	// newLock is swappable in tests.
	newLock func(workflow string) distlock.Lock
}

// NewServer wires the HTTP layer. db, redisClient and runs may be nil; the
// corresponding features (advisory locking fallback, run history) are then
// disabled and the health endpoint reports them as not configured.
func NewServer(cfg *config.Config, gateway ingest.Gateway, store sheets.FileStore, db *sql.DB, redisClient *redis.Client, runs RunRecorder) *Server {
	s := &Server{
		cfg:         cfg,
		gateway:     gateway,
		store:       store,
		runs:        runs,
		db:          db,
		redisClient: redisClient,
		startTime:   time.Now(),
	}
	s.newLock = func(workflow string) distlock.Lock {
		if s.redisClient == nil && s.db == nil {
			return nil
		}
		return distlock.New(s.redisClient, s.db, workflow, lockTTL)
	}
	return s
}
