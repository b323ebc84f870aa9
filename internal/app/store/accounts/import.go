package accounts

import (
	"context"
	"errors"
	"fmt"

	orguserstore "github.com/dalemusser/eventhub/internal/app/store/orgusers"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/txn"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImportRow is one validated member from an admin upload.
type ImportRow struct {
	Email    string
	Password string // used only when the account does not exist yet
	Names    string
	Phone    string

	Properties map[string]any
}

// ImportResult counts the links an import created and replaced.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Import writes rows into orgID in one transaction where the server
// supports it. Existing accounts keep their password; their link keeps its
// position and role and gets the new properties.
func (p *Persister) Import(ctx context.Context, orgID primitive.ObjectID, rows []ImportRow) (ImportResult, error) {
	var res ImportResult
	err := txn.Run(ctx, p.DB, p.Log, func(ctx context.Context) error {
		res = ImportResult{}
		for _, row := range rows {
			created, err := p.importRow(ctx, orgID, row)
			if err != nil {
				return fmt.Errorf("import %s: %w", row.Email, err)
			}
			if created {
				res.Created++
			} else {
				res.Updated++
			}
		}
		return nil
	})
	return res, err
}

func (p *Persister) importRow(ctx context.Context, orgID primitive.ObjectID, row ImportRow) (bool, error) {
	u, err := p.Users.GetByEmail(ctx, row.Email)
	if err != nil && !errors.Is(err, userstore.ErrNotFound) {
		return false, err
	}
	if u == nil {
		nu, err := p.Users.Create(ctx, models.User{
			Email: row.Email,
			Names: row.Names,
			Phone: row.Phone,
			Role:  "member",
		}, row.Password)
		if err != nil {
			return false, err
		}
		u = &nu
	}

	link := models.OrganizationUser{OrganizationID: orgID, UserID: u.ID, Properties: row.Properties}
	if prev, err := p.OrgUsers.Get(ctx, orgID, u.ID); err == nil {
		link.PositionID, link.RoleID = prev.PositionID, prev.RoleID
	} else if !errors.Is(err, orguserstore.ErrNotFound) {
		return false, err
	}
	return p.OrgUsers.Upsert(ctx, link)
}
