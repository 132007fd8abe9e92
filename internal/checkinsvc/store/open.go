package store

import (
	"context"
	"fmt"

	"github.com/avvvet/checkin-services/internal/checkinsvc/config"
	"github.com/avvvet/checkin-services/internal/db"
	log "github.com/sirupsen/logrus"
)

// Open builds the store selected by cfg.Backend, connecting and preparing
// the schema where the backend needs it.
func Open(ctx context.Context, cfg config.Config) (CheckinStore, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.DataFile)

	case config.BackendPostgres:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("POSTGRES_URL is required for the postgres backend")
		}
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := db.EnsurePostgresSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("pg connection established successfully")
		return NewPostgresStore(pool), nil

	case config.BackendMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required for the mongo backend")
		}
		database, err := db.ConnectToMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndex(ctx, database, cfg.MongoCollection, "timestamp"); err != nil {
			log.Warnf("mongo index not created: %v", err)
		}
		log.Info("mongo connection established successfully")
		return NewMongoStore(database, cfg.MongoCollection), nil

	case config.BackendSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(conn, db.NewWorker(conn)), nil

	case config.BackendMemory:
		log.Warn("memory store selected, check-ins are lost on restart")
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
