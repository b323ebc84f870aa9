// Package formutil serves the JSON endpoints shared by every feature that
// drives a server-held form session: change, blur, options and state.
package formutil

import (
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	"github.com/dalemusser/eventhub/internal/app/system/formengine"
	"github.com/dalemusser/eventhub/internal/app/system/formsession"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

// State is the render view of an open form.
type State struct {
	SessionID      string                  `json:"session_id"`
	Kind           string                  `json:"kind"`
	OrganizationID string                  `json:"organization_id"`
	Fields         []formengine.FieldState `json:"fields"`
	Errors         map[string]string       `json:"errors"`
}

// StateOf snapshots s.
func StateOf(s *formsession.Session) (State, error) {
	st := State{
		SessionID:      s.ID,
		Kind:           s.Scope.Kind,
		OrganizationID: s.Scope.OrganizationID,
	}
	err := s.Do(func(f *formengine.Form) error {
		st.Fields = f.Fields()
		st.Errors = f.Errors()
		return nil
	})
	return st, err
}

// ChangeRequest is the body of a change call.
type ChangeRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// BlurRequest is the body of a blur call.
type BlurRequest struct {
	Field string `json:"field"`
}

// BlurResponse carries the field error left by the blur check, if any.
type BlurResponse struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Error string `json:"error,omitempty"`
}

// OptionsResponse lists the current options of one field.
type OptionsResponse struct {
	Field   string                  `json:"field"`
	Options []models.PropertyOption `json:"options"`
}

// Lookup resolves the session named in a request and checks that owner
// holds it. It writes the error response and returns nil on failure.
func Lookup(w http.ResponseWriter, reg *formsession.Registry, sid, owner string) *formsession.Session {
	s, err := reg.Get(sid)
	if err != nil || s.Owner != owner {
		WriteError(w, formsession.ErrNotFound)
		return nil
	}
	return s
}

// Change applies a ChangeRequest and writes the new state.
func Change(w http.ResponseWriter, r *http.Request, s *formsession.Session) {
	var req ChangeRequest
	if err := apierrors.Decode(r, &req); err != nil || req.Field == "" {
		apierrors.Error(w, http.StatusBadRequest, "A field name is required.")
		return
	}
	if err := s.Do(func(f *formengine.Form) error { return f.Change(req.Field, req.Value) }); err != nil {
		WriteError(w, err)
		return
	}
	writeState(w, s)
}

// Blur runs the leave-field check and writes its outcome.
func Blur(w http.ResponseWriter, r *http.Request, s *formsession.Session) {
	var req BlurRequest
	if err := apierrors.Decode(r, &req); err != nil || req.Field == "" {
		apierrors.Error(w, http.StatusBadRequest, "A field name is required.")
		return
	}
	var resp BlurResponse
	err := s.Do(func(f *formengine.Form) error {
		msg, err := f.Blur(req.Field)
		resp = BlurResponse{Field: req.Field, Value: f.Value(req.Field), Error: msg}
		return err
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, resp)
}

// Options writes the option list of field.
func Options(w http.ResponseWriter, s *formsession.Session, field string) {
	var opts []models.PropertyOption
	err := s.Do(func(f *formengine.Form) error {
		var err error
		opts, err = f.Options(field)
		return err
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	if opts == nil {
		opts = []models.PropertyOption{}
	}
	apierrors.JSON(w, http.StatusOK, OptionsResponse{Field: field, Options: opts})
}

// Show writes the current state.
func Show(w http.ResponseWriter, s *formsession.Session) {
	writeState(w, s)
}

func writeState(w http.ResponseWriter, s *formsession.Session) {
	st, err := StateOf(s)
	if err != nil {
		WriteError(w, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, st)
}

// FieldErrors converts validation output to the error body shape.
func FieldErrors(errs []formengine.FieldError) []apierrors.FieldError {
	out := make([]apierrors.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, apierrors.FieldError{Field: e.Field, Message: e.Message})
	}
	return out
}

// WriteError maps session and form errors to a status and message.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, formsession.ErrNotFound):
		apierrors.Error(w, http.StatusNotFound, "This form is no longer open.")
	case errors.Is(err, formsession.ErrClosed):
		apierrors.Error(w, http.StatusGone, "This form was closed.")
	case errors.Is(err, formsession.ErrSubmitInFlight):
		apierrors.Error(w, http.StatusConflict, "The form is being submitted.")
	case errors.Is(err, formsession.ErrSuperseded):
		apierrors.Error(w, http.StatusConflict, "A newer form was opened.")
	case errors.Is(err, formengine.ErrUnknownField):
		apierrors.Error(w, http.StatusBadRequest, "Unknown field.")
	case errors.Is(err, formengine.ErrFieldHidden):
		apierrors.Error(w, http.StatusUnprocessableEntity, "This field is not shown.")
	default:
		apierrors.Error(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
