package testutil

import (
	"net/http"

	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID             string
	Name           string
	Email          string
	Role           string
	OrganizationID string
}

// AdminUser returns a TestUser with admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@test.com",
		Role:  auth.RoleAdmin,
	}
}

// MemberUser returns a TestUser with member role and organization.
func MemberUser(orgID primitive.ObjectID) TestUser {
	return TestUser{
		ID:             primitive.NewObjectID().Hex(),
		Name:           "Test Member",
		Email:          "member@test.com",
		Role:           auth.RoleMember,
		OrganizationID: orgID.Hex(),
	}
}

// WithUser returns r carrying u as the signed-in user.
func WithUser(r *http.Request, u TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:             u.ID,
		Name:           u.Name,
		LoginID:        u.Email,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
	})
}
