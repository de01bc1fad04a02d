// Package db bootstraps the MongoDB connection backing the credential store.
package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the service.
const (
	UsersCollection         = "users"
	ResetRequestsCollection = "reset_requests"
)

// Connect opens a MongoDB client for the given DSN, verifies the connection
// with a ping and returns the database handle plus a cleanup function that
// disconnects the client.
func Connect(ctx context.Context, dsn, name string) (*mongo.Database, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	cleanup := func() {
		_ = client.Disconnect(context.Background())
	}
	return client.Database(name), cleanup, nil
}
