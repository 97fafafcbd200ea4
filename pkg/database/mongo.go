package database

import (
	"context"
	"fmt"

	"github.com/suteetoe/howyoufell/pkg/config"
	applogger "github.com/suteetoe/howyoufell/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectMongo connects to the document store and returns the configured database
func ConnectMongo(ctx context.Context, mongoConfig *config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConfig.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoConfig.ConnectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	applogger.GetLogger().Info("Mongo connected successfully",
		zap.String("database", mongoConfig.DatabaseName))

	return client.Database(mongoConfig.DatabaseName), nil
}
