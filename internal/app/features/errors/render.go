// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"io"
	"net/http"
)

// maxBody caps a decoded JSON request body.
const maxBody = 1 << 20

// FieldError is one per-field message in an error body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// Fields writes {"error": msg, "fields": [...]}.
func Fields(w http.ResponseWriter, status int, msg string, fields []FieldError) {
	JSON(w, status, errorBody{Error: msg, Fields: fields})
}

// Decode reads a JSON request body into v. An empty body leaves v untouched.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}
