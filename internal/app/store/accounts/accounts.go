// Package accounts persists registration submits into the users and
// organization_users collections.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	orguserstore "github.com/dalemusser/eventhub/internal/app/store/orgusers"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/registration"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Persister implements registration.Persister.
//
// A submit for an email that already has an account joins that account to
// the organization only when the password matches; otherwise the email is
// reported as in use.
type Persister struct {
	DB       *mongo.Database
	Users    *userstore.Store
	OrgUsers *orguserstore.Store
	Log      *zap.Logger
}

var _ registration.Persister = (*Persister)(nil)

func New(db *mongo.Database, logger *zap.Logger) *Persister {
	return &Persister{
		DB:       db,
		Users:    userstore.New(db),
		OrgUsers: orguserstore.New(db),
		Log:      logger,
	}
}

func (p *Persister) CreateOrUpdateUser(ctx context.Context, req registration.CreateOrUpdate) (registration.Account, error) {
	if len(strings.TrimSpace(req.Password)) < registration.MinPasswordLength {
		return registration.Account{}, registration.ErrWeakPassword
	}

	u, created, err := p.findOrCreate(ctx, req)
	if err != nil {
		return registration.Account{}, err
	}

	if !created {
		if err := p.Users.SetContact(ctx, u.ID, req.Names, req.Phone); err != nil {
			return registration.Account{}, fmt.Errorf("update contact: %w", err)
		}
	}

	if _, err := p.OrgUsers.Upsert(ctx, models.OrganizationUser{
		OrganizationID: req.OrganizationID,
		UserID:         u.ID,
		PositionID:     req.PositionID,
		RoleID:         req.RoleID,
		Properties:     req.Properties,
	}); err != nil {
		return registration.Account{}, fmt.Errorf("link organization: %w", err)
	}
	return registration.Account{UserID: u.ID, Created: created}, nil
}

func (p *Persister) findOrCreate(ctx context.Context, req registration.CreateOrUpdate) (*models.User, bool, error) {
	existing, err := p.Users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return p.claim(existing, req.Password)
	case !errors.Is(err, userstore.ErrNotFound):
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}

	u, err := p.Users.Create(ctx, models.User{
		Email: req.Email,
		Names: req.Names,
		Phone: req.Phone,
		Role:  "member",
	}, req.Password)
	if err == nil {
		return &u, true, nil
	}
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	// Lost a race with a concurrent submit for the same email.
	existing, err = p.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}
	return p.claim(existing, req.Password)
}

func (p *Persister) claim(u *models.User, password string) (*models.User, bool, error) {
	if u.Status == models.StatusDisabled || !userstore.CheckPassword(u, password) {
		return nil, false, registration.ErrEmailInUse
	}
	return u, false, nil
}

func (p *Persister) UpdateProperties(ctx context.Context, orgID, userID primitive.ObjectID, props map[string]any) error {
	if err := p.OrgUsers.UpdateProperties(ctx, orgID, userID, props); err != nil {
		return fmt.Errorf("update properties: %w", err)
	}
	return nil
}
