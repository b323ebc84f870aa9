// internal/app/features/registration/handler.go
package registration

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	"github.com/dalemusser/eventhub/internal/app/store/accounts"
	organizationstore "github.com/dalemusser/eventhub/internal/app/store/organizations"
	"github.com/dalemusser/eventhub/internal/app/system/auditlog"
	"github.com/dalemusser/eventhub/internal/app/system/formengine"
	"github.com/dalemusser/eventhub/internal/app/system/formsession"
	"github.com/dalemusser/eventhub/internal/app/system/formutil"
	"github.com/dalemusser/eventhub/internal/app/system/ratelimit"
	regsvc "github.com/dalemusser/eventhub/internal/app/system/registration"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	msgBlocked     = "This registration form is not available."
	msgBadPosition = "This registration link names an unknown position."
	msgBadRole     = "This registration link names an unknown role."
)

var (
	errBlocked     = errors.New("organization not available")
	errBadPosition = errors.New("position not offered by organization")
	errBadRole     = errors.New("role not offered by organization")
)

// Handler serves the public registration form.
type Handler struct {
	Orgs     SchemaSource
	Service  *regsvc.Service
	Forms    *formsession.Registry
	Conv     formengine.Conventions
	Limits   *ratelimit.Limiter // form opens per client address; nil disables the cap
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, forms *formsession.Registry, conv formengine.Conventions,
	limits *ratelimit.Limiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Orgs:     organizationstore.New(db),
		Service:  regsvc.New(accounts.New(db, logger)),
		Forms:    forms,
		Conv:     conv,
		Limits:   limits,
		AuditLog: audit,
		Log:      logger,
	}
}

// ServeOpen handles GET /register/{orgID}. It opens a fresh form for the
// visitor, closing any form they had open before.
//
// The optional position_id and role_id query parameters must name values
// the organization offers; they are stored on the membership at submit.
func (h *Handler) ServeOpen(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		apierrors.JSON(w, http.StatusNotFound, blockedResponse{Error: msgBlocked, Blocked: true})
		return
	}
	if ip := ratelimit.ClientIP(r); h.Limits != nil && !h.Limits.Allow(ip) {
		h.Log.Warn("registration open rate limited", zap.String("ip", ip), zap.String("org_id", orgID.Hex()))
		apierrors.Error(w, http.StatusTooManyRequests, "Too many requests. Please wait and try again.")
		return
	}
	owner := formutil.BrowserOwner(w, r)

	scope := formsession.Scope{
		Kind:           "register",
		OrganizationID: orgID.Hex(),
		PositionID:     strings.TrimSpace(r.URL.Query().Get("position_id")),
		RoleID:         strings.TrimSpace(r.URL.Query().Get("role_id")),
	}

	var org models.Organization
	s, err := h.Forms.Open(owner, scope, func() (*formengine.Form, error) {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		o, err := h.Orgs.GetByID(ctx, orgID)
		if err != nil {
			if errors.Is(err, organizationstore.ErrNotFound) {
				return nil, errBlocked
			}
			return nil, err
		}
		if o.Status == models.StatusDisabled {
			return nil, errBlocked
		}
		if !offered(o.Positions, scope.PositionID) {
			return nil, errBadPosition
		}
		if !offered(o.Roles, scope.RoleID) {
			return nil, errBadRole
		}
		org = o
		return formengine.New(o.UserProperties, h.Conv), nil
	})
	switch {
	case err == nil:
	case errors.Is(err, formsession.ErrSuperseded):
		formutil.WriteError(w, err)
		return
	case errors.Is(err, errBlocked):
		apierrors.JSON(w, http.StatusNotFound, blockedResponse{Error: msgBlocked, Blocked: true})
		return
	case errors.Is(err, errBadPosition):
		apierrors.Fields(w, http.StatusBadRequest, msgBadPosition,
			[]apierrors.FieldError{{Field: "position_id", Message: msgBadPosition}})
		return
	case errors.Is(err, errBadRole):
		apierrors.Fields(w, http.StatusBadRequest, msgBadRole,
			[]apierrors.FieldError{{Field: "role_id", Message: msgBadRole}})
		return
	default:
		h.Log.Error("registration: schema load failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
		apierrors.JSON(w, http.StatusServiceUnavailable, blockedResponse{Error: msgBlocked, Blocked: true})
		return
	}

	st, err := formutil.StateOf(s)
	if err != nil {
		formutil.WriteError(w, err)
		return
	}
	apierrors.JSON(w, http.StatusCreated, openResponse{
		State:        st,
		Organization: orgSummary{ID: org.ID.Hex(), Name: org.Name},
	})
}

// offered reports whether v is blank or one of list.
func offered(list []string, v string) bool {
	if v == "" {
		return true
	}
	for _, o := range list {
		if o == v {
			return true
		}
	}
	return false
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *formsession.Session {
	return formutil.Lookup(w, h.Forms, chi.URLParam(r, "sid"), formutil.ExistingOwner(r))
}

// ServeState handles GET /register/sessions/{sid}.
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
	if s := h.session(w, r); s != nil {
		formutil.Show(w, s)
	}
}

// HandleChange handles POST /register/sessions/{sid}/change.
func (h *Handler) HandleChange(w http.ResponseWriter, r *http.Request) {
	if s := h.session(w, r); s != nil {
		formutil.Change(w, r, s)
	}
}

// HandleBlur handles POST /register/sessions/{sid}/blur.
func (h *Handler) HandleBlur(w http.ResponseWriter, r *http.Request) {
	if s := h.session(w, r); s != nil {
		formutil.Blur(w, r, s)
	}
}

// ServeOptions handles GET /register/sessions/{sid}/options/{field}.
func (h *Handler) ServeOptions(w http.ResponseWriter, r *http.Request) {
	if s := h.session(w, r); s != nil {
		formutil.Options(w, s, chi.URLParam(r, "field"))
	}
}

// HandleClose handles DELETE /register/sessions/{sid}.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	if s := h.session(w, r); s != nil {
		h.Forms.Close(s.ID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleSubmit handles POST /register/sessions/{sid}/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	orgID, err := primitive.ObjectIDFromHex(s.Scope.OrganizationID)
	if err != nil {
		formutil.WriteError(w, formsession.ErrNotFound)
		return
	}

	ticket, err := s.BeginSubmit()
	if err != nil {
		formutil.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	acc, err := h.Service.Register(ctx, ticket.Form, regsvc.Target{
		OrganizationID: orgID,
		PositionID:     s.Scope.PositionID,
		RoleID:         s.Scope.RoleID,
	})
	var email string
	if err == nil {
		email = ticket.Form.EmailValue()
	}

	if !s.FinishSubmit(ticket) {
		if err == nil {
			h.AuditLog.UserRegistered(ctx, r, acc.UserID, orgID, email)
		}
		h.Log.Info("registration result discarded; form closed during submit", zap.String("session_id", s.ID))
		formutil.WriteError(w, formsession.ErrClosed)
		return
	}

	if err != nil {
		h.writeSubmitError(w, r, orgID, ticket.Form, err)
		return
	}

	h.AuditLog.UserRegistered(ctx, r, acc.UserID, orgID, email)
	h.Forms.Close(s.ID)
	apierrors.JSON(w, http.StatusCreated, submitResponse{
		UserID:  acc.UserID.Hex(),
		Created: acc.Created,
		Message: "Registration complete.",
	})
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, r *http.Request, orgID primitive.ObjectID, form *formengine.Form, err error) {
	msg := regsvc.Message(err)
	var vf *regsvc.ValidationFailure
	switch {
	case errors.As(err, &vf):
		h.AuditLog.RegistrationRejected(r.Context(), r, orgID, "validation")
		apierrors.Fields(w, http.StatusUnprocessableEntity, msg, formutil.FieldErrors(vf.Errors))
	case errors.Is(err, regsvc.ErrEmailInUse):
		h.AuditLog.RegistrationRejected(r.Context(), r, orgID, "email in use")
		field, _ := form.FieldOfKind(formengine.KindEmail)
		apierrors.Fields(w, http.StatusConflict, msg, []apierrors.FieldError{{Field: field, Message: msg}})
	case errors.Is(err, regsvc.ErrWeakPassword):
		h.AuditLog.RegistrationRejected(r.Context(), r, orgID, "weak password")
		field, _ := form.FieldOfKind(formengine.KindID)
		apierrors.Fields(w, http.StatusUnprocessableEntity, msg, []apierrors.FieldError{{Field: field, Message: msg}})
	default:
		h.Log.Error("registration: persist failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, msg)
	}
}
