package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Ana María", "Ana María"},
		{"  Ana   María  ", "Ana María"},
		{"", ""},
		{"UPPER", "UPPER"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNameCI(t *testing.T) {
	if got := NameCI("  José  PÉREZ "); got != "jose perez" {
		t.Errorf("NameCI = %q, want %q", got, "jose perez")
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"300 123 4567", "3001234567"},
		{"+57 (300) 123-4567", "+573001234567"},
		{"57+300", "57300"},
		{"+", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Phone(tt.input); got != tt.want {
				t.Errorf("Phone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatusAndRole(t *testing.T) {
	if got := Status(" Active "); got != "active" {
		t.Errorf("Status = %q", got)
	}
	if got := Role("ADMIN"); got != "admin" {
		t.Errorf("Role = %q", got)
	}
}
