// Package db opens the record store selected by configuration.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"salgados/internal/config"
	"salgados/internal/storage"
	"salgados/internal/storage/gormstore"
	"salgados/internal/storage/redisstore"
	"salgados/internal/storage/s3store"
	"salgados/internal/storage/sqlstore"
)

// Handle owns an opened store. SQL is set only for the database/sql drivers
// and is shared with the audit SQL processor.
type Handle struct {
	Store  storage.Store
	SQL    *sql.DB
	Driver string
	closer func() error
}

func (h *Handle) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer()
}

func Open(ctx context.Context, cfg *config.Config) (*Handle, error) {
	h, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	log.Printf("Record store: %s", cfg.StoreDriver)
	return h, nil
}

func open(ctx context.Context, cfg *config.Config) (*Handle, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return &Handle{Store: storage.NewMemoryStore(), Driver: cfg.StoreDriver}, nil
	case config.StoreFile, "":
		st, err := storage.NewFileStore(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		return &Handle{Store: st, Driver: config.StoreFile}, nil
	case config.StoreSQLite, config.StorePostgres, config.StorePGX:
		dsn := cfg.DSN
		if cfg.StoreDriver == config.StoreSQLite && dsn == "" {
			dsn = sqliteDefaultPath(cfg.StorePath)
		}
		st, err := sqlstore.Open(ctx, cfg.StoreDriver, dsn)
		if err != nil {
			return nil, err
		}
		return &Handle{Store: st, SQL: st.DB(), Driver: cfg.StoreDriver, closer: st.Close}, nil
	case config.StoreMySQL:
		st, err := gormstore.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &Handle{Store: st, Driver: cfg.StoreDriver, closer: st.Close}, nil
	case config.StoreRedis:
		st, client, err := redisstore.Open(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return &Handle{Store: st, Driver: cfg.StoreDriver, closer: client.Close}, nil
	case config.StoreS3:
		st, err := s3store.Open(ctx, s3store.Config{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return &Handle{Store: st, Driver: cfg.StoreDriver}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// sqliteDefaultPath puts the database next to the JSON store path.
func sqliteDefaultPath(storePath string) string {
	if storePath == "" {
		return ""
	}
	return strings.TrimSuffix(storePath, filepath.Ext(storePath)) + ".db"
}
