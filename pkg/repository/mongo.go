package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/tableorder/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const auditService = "tableorder"

type AuditLog struct {
	ID        string    `bson:"_id,omitempty"`
	Service   string    `bson:"service"`
	Action    string    `bson:"action"`
	EntityID  string    `bson:"entity_id"`
	Data      bson.M    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

// AuditRepository appends audit entries to a MongoDB collection. It satisfies
// audit.Recorder.
type AuditRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewAuditRepository(cfg *config.MongoDBConfig, logger *zap.Logger) (*AuditRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	return &AuditRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger.Named("audit"),
	}, nil
}

func (a *AuditRepository) Ping(ctx context.Context) error {
	return a.client.Ping(ctx, nil)
}

func (a *AuditRepository) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}

func (a *AuditRepository) Insert(ctx context.Context, entry *AuditLog) error {
	if entry.Service == "" {
		entry.Service = auditService
	}
	entry.CreatedAt = time.Now()
	if _, err := a.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// Record never fails the caller; a lost audit entry is only logged.
func (a *AuditRepository) Record(ctx context.Context, action, entityID string, data map[string]interface{}) {
	entry := &AuditLog{
		Action:   action,
		EntityID: entityID,
		Data:     bson.M(data),
	}
	if err := a.Insert(ctx, entry); err != nil {
		a.logger.Warn("Failed to record audit log",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

// List returns the newest entries for entityID first.
func (a *AuditRepository) List(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error) {
	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := a.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []*AuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode audit logs: %w", err)
	}
	return logs, nil
}
