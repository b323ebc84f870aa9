// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/eventhub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/eventhub/internal/app/store/organizations"
	orguserstore "github.com/dalemusser/eventhub/internal/app/store/orgusers"
	progressstore "github.com/dalemusser/eventhub/internal/app/store/progress"
	recoverystore "github.com/dalemusser/eventhub/internal/app/store/recovery"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// indexer is any store that owns indexes.
type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureSchema creates the indexes of every store. It is idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	stores := []struct {
		name string
		s    indexer
	}{
		{"organizations", organizationstore.New(db)},
		{"users", userstore.New(db)},
		{"organization_users", orguserstore.New(db)},
		{"activity_progress", progressstore.New(db)},
		{"recovery_challenges", recoverystore.New(db, appCfg.RecoveryCodeExpiry)},
		{"audit_events", audit.New(db)},
	}

	for _, st := range stores {
		ictx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		err := st.s.EnsureIndexes(ictx)
		cancel()
		if err != nil {
			logger.Error("ensure indexes failed", zap.String("collection", st.name), zap.Error(err))
			return fmt.Errorf("ensure indexes on %s: %w", st.name, err)
		}
	}
	logger.Info("indexes ensured", zap.Int("collections", len(stores)))
	return nil
}
