package backend

import (
	"context"
	"fmt"

	"kitabu/internal/config"
	"kitabu/internal/kv/memory"
	kvredis "kitabu/internal/kv/redis"
	kvs3 "kitabu/internal/kv/s3"
	kvsqlite "kitabu/internal/kv/sqlite"
	"kitabu/internal/log"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentStorage)}
}

func (f *DefaultFactory) CreateStorage(ctx context.Context, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}

	switch cfg.StorageBackend {
	case config.BackendSQLite:
		return f.createSQLite(cfg)
	case config.BackendRedis:
		return f.createRedis(ctx, cfg)
	case config.BackendS3:
		return f.createS3(ctx, cfg)
	case config.BackendMemory:
		return f.createMemory(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

func (f *DefaultFactory) createSQLite(cfg *config.Config) (*Result, error) {
	store, err := kvsqlite.Open(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
	}
	f.logger.Info("Initialized SQLite storage", "db_path", cfg.SQLiteDBPath)
	return &Result{
		Storage: store,
		Name:    config.BackendSQLite,
		Cleanup: store.Close,
		Health:  store.HealthCheck,
	}, nil
}

func (f *DefaultFactory) createRedis(ctx context.Context, cfg *config.Config) (*Result, error) {
	store, err := kvredis.New(ctx, kvredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis storage: %w", err)
	}
	f.logger.Info("Initialized Redis storage", "addr", cfg.RedisAddr, "db", cfg.RedisDB, "prefix", cfg.RedisPrefix)
	return &Result{
		Storage: store,
		Name:    config.BackendRedis,
		Cleanup: store.Close,
		Health:  store.HealthCheck,
	}, nil
}

func (f *DefaultFactory) createS3(ctx context.Context, cfg *config.Config) (*Result, error) {
	store, err := kvs3.New(ctx, kvs3.Options{
		Bucket:  cfg.S3Bucket,
		Prefix:  cfg.S3Prefix,
		Region:  cfg.AWSRegion,
		Profile: cfg.AWSProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
	}
	f.logger.Info("Initialized S3 storage", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix, "region", cfg.AWSRegion)
	return &Result{Storage: store, Name: config.BackendS3}, nil
}

func (f *DefaultFactory) createMemory(cfg *config.Config) (*Result, error) {
	var store *memory.Store
	if cfg.DataDir != "" {
		store = memory.NewFromDir(cfg.DataDir)
	} else {
		store = memory.New(nil)
	}
	f.logger.Info("Initialized memory storage", "data_directory", cfg.DataDir, "seeded_keys", store.Keys())
	return &Result{Storage: store, Name: config.BackendMemory}, nil
}
