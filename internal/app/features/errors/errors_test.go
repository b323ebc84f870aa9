package errors_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
)

func TestHandlers_StatusAndBody(t *testing.T) {
	h := apierrors.NewHandler()
	tests := []struct {
		name   string
		fn     http.HandlerFunc
		status int
	}{
		{"forbidden", h.Forbidden, http.StatusForbidden},
		{"unauthorized", h.Unauthorized, http.StatusUnauthorized},
		{"not found", h.NotFound, http.StatusNotFound},
		{"method", h.MethodNotAllowed, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body["error"] == "" || body["error"] == nil {
				t.Error("expected error message")
			}
		})
	}
}

func TestFields(t *testing.T) {
	rec := httptest.NewRecorder()
	apierrors.Fields(rec, http.StatusUnprocessableEntity, "bad", []apierrors.FieldError{{Field: "email", Message: "required"}})

	var body struct {
		Error  string                 `json:"error"`
		Fields []apierrors.FieldError `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Error != "bad" || len(body.Fields) != 1 || body.Fields[0].Field != "email" {
		t.Errorf("body = %+v", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	if err := apierrors.Decode(r, &v); err != nil || v.Name != "x" {
		t.Errorf("Decode = %v, name=%q", err, v.Name)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := apierrors.Decode(r, &v); err != nil {
		t.Errorf("empty body should not fail: %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	if err := apierrors.Decode(r, &v); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
