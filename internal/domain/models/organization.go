// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization owns events and the user-property schema its members fill in.
type Organization struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Name           string             `bson:"name" json:"name"`
	NameCI         string             `bson:"name_ci" json:"-"` // ← always stored
	Status         string             `bson:"status" json:"status"`
	UserProperties []PropertySchema   `bson:"user_properties" json:"user_properties"`
	Positions      []string           `bson:"positions,omitempty" json:"positions,omitempty"` // ids a registration link may assign
	Roles          []string           `bson:"roles,omitempty" json:"roles,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
