// internal/app/store/orgusers/orguserstore.go
package orguserstore

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

// ErrNotFound is returned when the user is not linked to the organization.
var ErrNotFound = errors.New("organization user not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organization_users")}
}

// EnsureIndexes creates the unique (organization, user) index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_orguser_org_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_orguser_user"),
		},
	})
	return err
}

// Upsert links ou.UserID to ou.OrganizationID, replacing position, role and
// properties when the link already exists. created reports a new link.
func (s *Store) Upsert(ctx context.Context, ou models.OrganizationUser) (created bool, err error) {
	now := time.Now().UTC()
	props := ou.Properties
	if props == nil {
		props = map[string]any{}
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"organization_id": ou.OrganizationID, "user_id": ou.UserID},
		bson.M{
			"$set": bson.M{
				"position_id": ou.PositionID,
				"role_id":     ou.RoleID,
				"properties":  props,
				"updated_at":  now,
			},
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

// UpdateProperties replaces the stored answers of an existing link.
func (s *Store) UpdateProperties(ctx context.Context, orgID, userID primitive.ObjectID, props map[string]any) error {
	if props == nil {
		props = map[string]any{}
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"organization_id": orgID, "user_id": userID},
		bson.M{"$set": bson.M{"properties": props, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, orgID, userID primitive.ObjectID) (models.OrganizationUser, error) {
	var ou models.OrganizationUser
	err := s.c.FindOne(ctx, bson.M{"organization_id": orgID, "user_id": userID}).Decode(&ou)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.OrganizationUser{}, ErrNotFound
		}
		return models.OrganizationUser{}, err
	}
	return ou, nil
}

// ListByOrg returns every link of orgID, oldest first.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.OrganizationUser, error) {
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.OrganizationUser
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns every organization link of userID.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.OrganizationUser, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.OrganizationUser
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
