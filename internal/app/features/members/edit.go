// internal/app/features/members/edit.go
package members

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	organizationstore "github.com/dalemusser/eventhub/internal/app/store/organizations"
	orguserstore "github.com/dalemusser/eventhub/internal/app/store/orgusers"
	"github.com/dalemusser/eventhub/internal/app/system/formengine"
	"github.com/dalemusser/eventhub/internal/app/system/formsession"
	"github.com/dalemusser/eventhub/internal/app/system/formutil"
	regsvc "github.com/dalemusser/eventhub/internal/app/system/registration"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const msgNoMember = "Member not found in this organization."

var errNoMember = errors.New("member not linked to organization")

type editResponse struct {
	formutil.State
	UserID string `json:"user_id"`
}

// HandleOpenEdit handles POST /members/{orgID}/{userID}/edit. The form is
// pre-filled from the member's stored answers.
func (h *Handler) HandleOpenEdit(w http.ResponseWriter, r *http.Request) {
	orgID, err1 := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	userID, err2 := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err1 != nil || err2 != nil {
		apierrors.Error(w, http.StatusNotFound, msgNoMember)
		return
	}

	scope := formsession.Scope{
		Kind:           "edit",
		OrganizationID: orgID.Hex(),
		SubjectID:      userID.Hex(),
	}
	s, err := h.Forms.Open(formutil.UserOwner(actorID(r)), scope, func() (*formengine.Form, error) {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		org, err := h.Orgs.GetByID(ctx, orgID)
		if err != nil {
			if errors.Is(err, organizationstore.ErrNotFound) {
				return nil, errNoMember
			}
			return nil, err
		}
		link, err := h.OrgUsers.Get(ctx, orgID, userID)
		if err != nil {
			if errors.Is(err, orguserstore.ErrNotFound) {
				return nil, errNoMember
			}
			return nil, err
		}
		return formengine.NewEdit(org.UserProperties, h.Conv, link.Properties), nil
	})
	switch {
	case err == nil:
	case errors.Is(err, errNoMember):
		apierrors.Error(w, http.StatusNotFound, msgNoMember)
		return
	case errors.Is(err, formsession.ErrSuperseded):
		formutil.WriteError(w, err)
		return
	default:
		h.Log.Error("members: load edit form failed", zap.Error(err),
			zap.String("org_id", orgID.Hex()), zap.String("user_id", userID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not load this member.")
		return
	}

	st, err := formutil.StateOf(s)
	if err != nil {
		formutil.WriteError(w, err)
		return
	}
	apierrors.JSON(w, http.StatusCreated, editResponse{State: st, UserID: userID.Hex()})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *formsession.Session {
	s := formutil.Lookup(w, h.Forms, chi.URLParam(r, "sid"), formutil.UserOwner(actorID(r)))
	if s != nil && s.Scope.Kind != "edit" {
		formutil.WriteError(w, formsession.ErrNotFound)
		return nil
	}
	return s
}

// ServeState handles GET /members/sessions/{sid}.
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
	if s := h.session(w, r); s != nil {
		formutil.Show(w, s)
	}
}

// HandleChange handles POST /members/sessions/{sid}/change.
func (h *Handler) HandleChange(w http.ResponseWriter, r *http.Request) {
	if s := h.session(w, r); s != nil {
		formutil.Change(w, r, s)
	}
}

// HandleBlur handles POST /members/sessions/{sid}/blur.
func (h *Handler) HandleBlur(w http.ResponseWriter, r *http.Request) {
	if s := h.session(w, r); s != nil {
		formutil.Blur(w, r, s)
	}
}

// ServeOptions handles GET /members/sessions/{sid}/options/{field}.
func (h *Handler) ServeOptions(w http.ResponseWriter, r *http.Request) {
	if s := h.session(w, r); s != nil {
		formutil.Options(w, s, chi.URLParam(r, "field"))
	}
}

// HandleClose handles DELETE /members/sessions/{sid}.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	if s := h.session(w, r); s != nil {
		h.Forms.Close(s.ID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleSubmit handles POST /members/sessions/{sid}/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	orgID, err1 := primitive.ObjectIDFromHex(s.Scope.OrganizationID)
	userID, err2 := primitive.ObjectIDFromHex(s.Scope.SubjectID)
	if err1 != nil || err2 != nil {
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
	err = h.Service.Update(ctx, ticket.Form, regsvc.Target{OrganizationID: orgID, UserID: userID})

	if !s.FinishSubmit(ticket) {
		if err == nil {
			h.AuditLog.MemberUpdated(ctx, r, actorID(r), orgID, userID)
		}
		formutil.WriteError(w, formsession.ErrClosed)
		return
	}

	var vf *regsvc.ValidationFailure
	switch {
	case err == nil:
	case errors.As(err, &vf):
		apierrors.Fields(w, http.StatusUnprocessableEntity, regsvc.Message(err), formutil.FieldErrors(vf.Errors))
		return
	default:
		h.Log.Error("members: update properties failed", zap.Error(err),
			zap.String("org_id", orgID.Hex()), zap.String("user_id", userID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, regsvc.Message(err))
		return
	}

	h.AuditLog.MemberUpdated(ctx, r, actorID(r), orgID, userID)
	h.Forms.Close(s.ID)
	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
