// internal/domain/models/progress.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityProgress is how far a user got through a video activity.
type ActivityProgress struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	ActivityID string             `bson:"activity_id" json:"activity_id"`
	Percent    float64            `bson:"percent" json:"percent"`
	Seconds    float64            `bson:"seconds" json:"seconds"`
	Completed  bool               `bson:"completed" json:"completed"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
