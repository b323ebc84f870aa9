package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},
		{"a@b.co", true},
		{"user@localhost", true},

		{"", false},
		{"   ", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{".user@example.com", false},
		{"user.@example.com", false},
		{"user..name@example.com", false},
		{"user@.example.com", false},
		{"user@example..com", false},
		{"User Name <user@example.com>", false},
		{"user @example.com", false},
		{"user@exam ple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

type propertyInput struct {
	Name  string `json:"name" validate:"required,fieldname"`
	Label string `json:"label" validate:"notblank,max=20"`
	Code  string `json:"code" validate:"omitempty,nospace"`
	Type  string `json:"type" validate:"oneof=text email list"`
}

func TestValidate_Valid(t *testing.T) {
	res := Validate(propertyInput{Name: "documento", Label: "Documento", Type: "text"})
	if res.HasErrors() {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
	if res.First() != "" {
		t.Errorf("First() = %q, want empty", res.First())
	}
}

func TestValidate_ReportsJSONNames(t *testing.T) {
	res := Validate(propertyInput{Name: "Bad Name", Label: "  ", Code: "a b", Type: "radio"})
	if !res.HasErrors() {
		t.Fatal("expected errors")
	}
	byField := res.ByField()
	for _, f := range []string{"name", "label", "code", "type"} {
		if byField[f] == "" {
			t.Errorf("missing error for %q in %+v", f, byField)
		}
	}
}

func TestValidate_RequiredMessage(t *testing.T) {
	res := Validate(propertyInput{Label: "x", Type: "text"})
	if got := res.ByField()["name"]; got != "name is a required field" {
		t.Errorf("name message = %q", got)
	}
}
