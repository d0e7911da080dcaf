// Package bootstrap connects the configured store backend and Redis and
// assembles the repositories the services run on.
package bootstrap

import (
	"context"
	"fmt"

	"thoughtnet/internal/cache"
	"thoughtnet/internal/config"
	"thoughtnet/internal/database"
	"thoughtnet/internal/repository"
	"thoughtnet/internal/repository/mongostore"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"
)

// Store bundles the repositories of one backend with its lifecycle hooks.
type Store struct {
	Driver   string
	Users    repository.UserRepository
	Thoughts repository.ThoughtRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping reports whether the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// WithCache returns a copy of s whose point reads go through Redis.
// A nil client returns s unchanged.
func (s *Store) WithCache(rdb *redis.Client) *Store {
	if rdb == nil {
		return s
	}
	cached := *s
	cached.Users = repository.NewCachedUserRepository(s.Users, rdb)
	cached.Thoughts = repository.NewCachedThoughtRepository(s.Thoughts, rdb)
	return &cached
}

// GormStore wraps a connected gorm database.
func GormStore(db *gorm.DB) *Store {
	return &Store{
		Driver:   db.Dialector.Name(),
		Users:    repository.NewUserRepository(db),
		Thoughts: repository.NewThoughtRepository(db),
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// MongoStore wraps a connected MongoDB database.
func MongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Driver:   config.DriverMongo,
		Users:    mongostore.NewUserStore(db),
		Thoughts: mongostore.NewThoughtStore(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	}
}

// OpenStore connects the backend selected by cfg.DBDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg.DBDriver == config.DriverMongo {
		client, db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("mongodb connection failed: %w", err)
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongodb index setup failed: %w", err)
		}
		return MongoStore(client, db), nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return GormStore(db), nil
}

// Runtime holds the connections shared by the server and the tools.
type Runtime struct {
	Store *Store
	Redis *redis.Client
}

// InitRuntime connects the store and Redis. Redis is optional: when it is
// unset or unreachable the runtime runs without cache and pub/sub.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rdb := cache.InitRedis(cfg.RedisURL)
	return &Runtime{Store: store.WithCache(rdb), Redis: rdb}, nil
}

// Close releases the store and Redis connections.
func (r *Runtime) Close(ctx context.Context) error {
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	return r.Store.Close(ctx)
}
