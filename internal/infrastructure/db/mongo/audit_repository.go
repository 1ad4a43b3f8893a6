package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/salonbook/webapp/internal/core/domain"
)

const collectionSessionEvents = "session_events"

// AuditRepository implements ports.SessionEventRepository.
type AuditRepository struct {
	col       *mongo.Collection
	retention time.Duration
}

// NewAuditRepository creates an AuditRepository. Events older than retention
// are removed by a TTL index; zero keeps them forever.
func NewAuditRepository(db *mongo.Database, retention time.Duration) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionSessionEvents), retention: retention}
}

// InsertEvent persists a session event.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.SessionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, eventDocument(event)); err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the session_events collection.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, auditIndexes(r.retention))
	return err
}

func auditIndexes(retention time.Duration) []mongo.IndexModel {
	at := mongo.IndexModel{Keys: bson.D{{Key: "at", Value: 1}}}
	if retention > 0 {
		at.Options = options.Index().SetExpireAfterSeconds(int32(retention / time.Second))
	}
	return []mongo.IndexModel{
		at,
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
}

func eventDocument(event *domain.SessionEvent) bson.M {
	doc := bson.M{
		"session_id": event.SessionID,
		"type":       string(event.Type),
		"at":         event.At.UTC(),
	}
	if event.UserID != "" {
		doc["user_id"] = event.UserID
		doc["role"] = string(event.Role)
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}
	return doc
}
