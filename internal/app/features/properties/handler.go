// internal/app/features/properties/handler.go
package properties

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	"github.com/dalemusser/eventhub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/eventhub/internal/app/store/organizations"
	"github.com/dalemusser/eventhub/internal/app/system/auditlog"
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/dalemusser/eventhub/internal/app/system/formengine"
	"github.com/dalemusser/eventhub/internal/app/system/inputval"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler edits organization property schemas.
type Handler struct {
	Orgs     SchemaStore
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Orgs:     organizationstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}

// load resolves {orgID} and returns the organization, writing the error
// response on failure.
func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Organization, bool) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		apierrors.Error(w, http.StatusNotFound, "Organization not found.")
		return models.Organization{}, false
	}
	org, err := h.Orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, organizationstore.ErrNotFound) {
			apierrors.Error(w, http.StatusNotFound, "Organization not found.")
			return models.Organization{}, false
		}
		h.Log.Error("properties: load org failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not load the organization.")
		return models.Organization{}, false
	}
	return org, true
}

// ServeList handles GET /properties/{orgID}.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	apierrors.JSON(w, http.StatusOK, schemaResponse{
		OrganizationID: org.ID.Hex(),
		Properties:     formengine.SortFields(org.UserProperties),
	})
}

// HandleCreate handles POST /properties/{orgID}.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeProperty(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusCreated, audit.EventPropertyCreated, in.Name, func(cur []models.PropertySchema) ([]models.PropertySchema, error) {
		return addProperty(cur, in.toSchema())
	})
}

// HandleUpdate handles PUT /properties/{orgID}/{name}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeProperty(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	h.mutate(w, r, http.StatusOK, audit.EventPropertyUpdated, name, func(cur []models.PropertySchema) ([]models.PropertySchema, error) {
		return replaceProperty(cur, name, in.toSchema())
	})
}

// HandleDelete handles DELETE /properties/{orgID}/{name}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h.mutate(w, r, http.StatusOK, audit.EventPropertyDeleted, name, func(cur []models.PropertySchema) ([]models.PropertySchema, error) {
		return removeProperty(cur, name)
	})
}

// HandleReorder handles POST /properties/{orgID}/reorder.
func (h *Handler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	var in reorderInput
	if err := apierrors.Decode(r, &in); err != nil {
		apierrors.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apierrors.Fields(w, http.StatusUnprocessableEntity, res.First(), toFieldErrors(res))
		return
	}
	h.mutate(w, r, http.StatusOK, audit.EventPropertiesReorder, "", func(cur []models.PropertySchema) ([]models.PropertySchema, error) {
		return reorderProperties(formengine.SortFields(cur), in.Names)
	})
}

// mutate loads the schema, applies change and stores the renumbered result.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, okStatus int, event, name string,
	change func([]models.PropertySchema) ([]models.PropertySchema, error)) {

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	next, err := change(org.UserProperties)
	var se *schemaError
	switch {
	case err == nil:
	case errors.Is(err, errDuplicateName):
		apierrors.Fields(w, http.StatusConflict, err.Error(), []apierrors.FieldError{{Field: "name", Message: err.Error()}})
		return
	case errors.Is(err, errNoProperty):
		apierrors.Error(w, http.StatusNotFound, "Property not found.")
		return
	case errors.As(err, &se):
		apierrors.Fields(w, http.StatusUnprocessableEntity, se.Message, []apierrors.FieldError{{Field: se.Field, Message: se.Message}})
		return
	default:
		apierrors.Error(w, http.StatusInternalServerError, "Could not update the properties.")
		return
	}

	saved, err := h.Orgs.SetProperties(ctx, org.ID, next)
	if err != nil {
		if errors.Is(err, organizationstore.ErrNotFound) {
			apierrors.Error(w, http.StatusNotFound, "Organization not found.")
			return
		}
		h.Log.Error("properties: save failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not update the properties.")
		return
	}

	h.AuditLog.PropertyChanged(ctx, r, actorID(r), org.ID, event, name)
	apierrors.JSON(w, okStatus, schemaResponse{OrganizationID: org.ID.Hex(), Properties: saved})
}

func decodeProperty(w http.ResponseWriter, r *http.Request) (propertyInput, bool) {
	var in propertyInput
	if err := apierrors.Decode(r, &in); err != nil {
		apierrors.Error(w, http.StatusBadRequest, "Malformed request body.")
		return in, false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apierrors.Fields(w, http.StatusUnprocessableEntity, res.First(), toFieldErrors(res))
		return in, false
	}
	return in, true
}

func toFieldErrors(res inputval.Result) []apierrors.FieldError {
	out := make([]apierrors.FieldError, 0, len(res.Errors))
	for _, e := range res.Errors {
		out = append(out, apierrors.FieldError{Field: e.Field, Message: e.Message})
	}
	return out
}

func actorID(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	return ""
}
