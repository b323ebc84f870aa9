package registration

import (
	"context"

	"github.com/dalemusser/eventhub/internal/app/system/formutil"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SchemaSource loads the organization whose schema a form renders.
type SchemaSource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
}

type orgSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type openResponse struct {
	formutil.State
	Organization orgSummary `json:"organization"`
}

type blockedResponse struct {
	Error   string `json:"error"`
	Blocked bool   `json:"blocked"`
}

type submitResponse struct {
	UserID  string `json:"user_id"`
	Created bool   `json:"created"`
	Message string `json:"message"`
}
