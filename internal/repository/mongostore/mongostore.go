// Package mongostore implements the user and thought repositories on MongoDB.
// Reference arrays are native document arrays mutated with $push and $pull,
// so each relationship write is atomic on its document.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"thoughtnet/internal/middleware"
	"thoughtnet/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	UsersCollection    = "users"
	ThoughtsCollection = "thoughts"
)

// Connect dials uri, verifies the connection and ensures indexes on dbName.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	middleware.Logger.Info("MongoDB connected successfully", slog.String("database", dbName))
	return client, db, nil
}

// EnsureIndexes creates the unique user indexes and the lookup indexes used
// by cascades and reverse lookups.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "thoughts", Value: 1}}},
		{Keys: bson.D{{Key: "friends", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = db.Collection(ThoughtsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create thought indexes: %w", err)
	}
	return nil
}

func translate(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFoundMessage(notFoundMsg)
	}
	if mongo.IsDuplicateKeyError(err) {
		return models.NewValidationError("Username or email already exists")
	}
	return models.NewInternalError(err)
}

func findOptions(limit, offset int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	return opts
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
