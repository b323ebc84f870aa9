// internal/app/store/progress/store.go
package progressstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a user has no progress for an activity.
var ErrNotFound = errors.New("progress not found")

// Store manages per-user activity progress.
type Store struct {
	c *mongo.Collection
}

// New creates a new progress Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity_progress")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "activity_id", Value: 1}},
			Options: options.Index().SetName("uniq_progress_user_activity").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "activity_id", Value: 1}, {Key: "completed", Value: 1}},
			Options: options.Index().SetName("idx_progress_activity_completed"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Record merges p into the stored progress. Percent and seconds only grow
// and a completed activity stays completed, so late or reordered writes
// never move progress backwards.
func (s *Store) Record(ctx context.Context, p models.ActivityProgress) (models.ActivityProgress, error) {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	onInsert := bson.M{"_id": primitive.NewObjectID()}
	if p.Completed {
		set["completed"] = true
	} else {
		onInsert["completed"] = false
	}

	var out models.ActivityProgress
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": p.UserID, "activity_id": p.ActivityID},
		bson.M{
			"$max":         bson.M{"percent": p.Percent, "seconds": p.Seconds},
			"$set":         set,
			"$setOnInsert": onInsert,
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return models.ActivityProgress{}, err
	}
	return out, nil
}

// Get returns the stored progress of userID on activityID.
func (s *Store) Get(ctx context.Context, userID primitive.ObjectID, activityID string) (models.ActivityProgress, error) {
	var p models.ActivityProgress
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "activity_id": activityID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ActivityProgress{}, ErrNotFound
		}
		return models.ActivityProgress{}, err
	}
	return p, nil
}

// ListByUser returns every activity progress of userID, most recent first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ActivityProgress, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ActivityProgress
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
