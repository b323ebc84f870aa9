// internal/app/features/organizations/handler.go
package organizations

import (
	"context"

	organizationstore "github.com/dalemusser/eventhub/internal/app/store/organizations"
	"github.com/dalemusser/eventhub/internal/app/system/auditlog"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store is the slice of the organization store the admin endpoints use.
type Store interface {
	List(ctx context.Context) ([]models.Organization, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
	Create(ctx context.Context, org models.Organization) (models.Organization, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	SetAssignments(ctx context.Context, id primitive.ObjectID, positions, roles []string) error
}

// Handler is the feature-level entry point for Organizations.
type Handler struct {
	Orgs     Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a new Organizations handler bound to a DB and logger.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Orgs:     organizationstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}
