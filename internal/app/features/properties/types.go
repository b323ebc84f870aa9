// internal/app/features/properties/types.go
package properties

import (
	"context"

	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SchemaStore reads and replaces an organization's property schema.
type SchemaStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
	SetProperties(ctx context.Context, id primitive.ObjectID, props []models.PropertySchema) ([]models.PropertySchema, error)
}

// propertyInput is the body of create and update calls.
type propertyInput struct {
	Name       string           `json:"name" validate:"required,fieldname"`
	Label      string           `json:"label" validate:"notblank,max=2000"`
	Type       models.FieldType `json:"type" validate:"required,oneof=text email boolean list codearea textarea country city department"`
	Mandatory  bool             `json:"mandatory"`
	Visible    *bool            `json:"visible"`
	Options    []optionInput    `json:"options" validate:"omitempty,max=500,dive"`
	Dependency *dependencyInput `json:"dependency"`
}

type optionInput struct {
	Value string `json:"value" validate:"notblank,max=200"`
	Label string `json:"label" validate:"max=200"`
}

type dependencyInput struct {
	FieldName     string   `json:"fieldName" validate:"required"`
	TriggerValues []string `json:"triggerValues"`
}

type reorderInput struct {
	Names []string `json:"names" validate:"required,min=1"`
}

type schemaResponse struct {
	OrganizationID string                  `json:"organization_id"`
	Properties     []models.PropertySchema `json:"properties"`
}
