package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it again on the same request adds to the existing parameters.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization creates an active organization with the given schema.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string, props ...models.PropertySchema) models.Organization {
	f.t.Helper()

	if props == nil {
		props = []models.PropertySchema{}
	}
	now := time.Now().UTC()
	org := models.Organization{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		Status:         models.StatusActive,
		UserProperties: props,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateUser creates an active user with the given role and password.
func (f *Fixtures) CreateUser(ctx context.Context, email, password, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		Names:        "Test " + role,
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin creates an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, email, password string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, email, password, "admin")
}

// CreateMember creates a member user.
func (f *Fixtures) CreateMember(ctx context.Context, email, password string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, email, password, "member")
}

// LinkUser stores props for userID in orgID.
func (f *Fixtures) LinkUser(ctx context.Context, orgID, userID primitive.ObjectID, props map[string]any) models.OrganizationUser {
	f.t.Helper()

	now := time.Now().UTC()
	ou := models.OrganizationUser{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		UserID:         userID,
		Properties:     props,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("organization_users").InsertOne(ctx, ou); err != nil {
		f.t.Fatalf("failed to link test user: %v", err)
	}
	return ou
}
