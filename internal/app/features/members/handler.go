// internal/app/features/members/handler.go
package members

import (
	"net/http"

	"github.com/dalemusser/eventhub/internal/app/store/accounts"
	organizationstore "github.com/dalemusser/eventhub/internal/app/store/organizations"
	orguserstore "github.com/dalemusser/eventhub/internal/app/store/orgusers"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/auditlog"
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/dalemusser/eventhub/internal/app/system/formengine"
	"github.com/dalemusser/eventhub/internal/app/system/formsession"
	regsvc "github.com/dalemusser/eventhub/internal/app/system/registration"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for admin member management.
// It holds the stores and logger provided by WAFFLE DBDeps / Startup.
type Handler struct {
	Orgs     *organizationstore.Store
	Users    *userstore.Store
	OrgUsers *orguserstore.Store
	Accounts *accounts.Persister
	Service  *regsvc.Service
	Forms    *formsession.Registry
	Conv     formengine.Conventions
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, forms *formsession.Registry, conv formengine.Conventions, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	acc := accounts.New(db, logger)
	return &Handler{
		Orgs:     organizationstore.New(db),
		Users:    acc.Users,
		OrgUsers: acc.OrgUsers,
		Accounts: acc,
		Service:  regsvc.New(acc),
		Forms:    forms,
		Conv:     conv,
		AuditLog: audit,
		Log:      logger,
	}
}

// actorID returns the signed-in admin's id. Routes are mounted behind
// RequireRole, so a missing user only happens in misconfigured tests.
func actorID(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	return ""
}
