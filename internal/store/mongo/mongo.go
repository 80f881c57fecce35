// Package mongo contains the document-store adapters for orders and
// user profiles. The report core only sees the OrderPager and
// UserDirectory interfaces; everything Mongo-specific (filters, sort
// keys, cursor encoding) stays in this package.
package mongo

import (
	"context"
	"fmt"
	"time"

	"tienda_srv/internal/config"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Connect opens a client against the configured deployment and pings
// the primary so a bad URI fails at startup, not on the first query.
func Connect(cfg config.Mongo, logger *logrus.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.WithField("database", cfg.Database).Info("Connected to MongoDB")
	return client, nil
}

// Database returns the configured database handle.
func Database(client *mongo.Client, cfg config.Mongo) *mongo.Database {
	return client.Database(cfg.Database)
}
