package formengine

import (
	"math/rand"
	"strings"
	"testing"
)

func TestSanitizeOnChange_Numeric(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+57 (312) 123-4567 ext", "573121234567"},
		{"1.023.456.789", "1023456789"},
		{"abc", ""},
		{"", ""},
		{"١٢٣123", "123"}, // non-ASCII digits are dropped
	}
	for _, tt := range tests {
		for _, k := range []Kind{KindID, KindPhone} {
			if got := SanitizeOnChange(k, tt.in); got != tt.want {
				t.Errorf("SanitizeOnChange(%s, %q) = %q, want %q", k, tt.in, got, tt.want)
			}
		}
	}
}

// Appending arbitrary text to a clean value keeps the prior digits and adds
// exactly the typed digits, in order.
func TestSanitizeOnChange_NumericKeepsDigitOrder(t *testing.T) {
	pool := []rune("0123456789 abc-+().#ñé")
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		prior := SanitizeOnChange(KindPhone, randString(rng, pool, 8))
		typed := randString(rng, pool, 6)

		got := SanitizeOnChange(KindPhone, prior+typed)

		var digits strings.Builder
		for _, r := range typed {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		if want := prior + digits.String(); got != want {
			t.Fatalf("SanitizeOnChange(%q+%q) = %q, want %q", prior, typed, got, want)
		}
	}
}

func TestSanitizeOnChange_Names(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"María José", "María José"},
		{"Peña-López", "Peña-López"},
		{"ÁÉÍÓÚÜÑ áéíóúüñ", "ÁÉÍÓÚÜÑ áéíóúüñ"},
		{"Juan3 P.", "Juan P"},
		{"O'Neil", "ONeil"},
		{"Ana😀", "Ana"},
		{"a×b÷c", "abc"},
	}
	for _, tt := range tests {
		if got := SanitizeOnChange(KindNames, tt.in); got != tt.want {
			t.Errorf("SanitizeOnChange(names, %q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeOnChange_NamesOnlyAllowedRunes(t *testing.T) {
	pool := []rune("aZñÑáÜ -_.,0129@#\t\n'\"😀×÷中ßø")
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		in := randString(rng, pool, 12)
		got := SanitizeOnChange(KindNames, in)
		for _, r := range got {
			if !nameRune(r) {
				t.Fatalf("SanitizeOnChange(names, %q) = %q contains %q", in, got, r)
			}
		}
		if _, msg := ValidateOnBlur(KindNames, got); msg != "" && strings.TrimSpace(got) != "" {
			t.Fatalf("sanitized %q fails blur check: %s", got, msg)
		}
	}
}

func TestSanitizeOnChange_EmailPassThrough(t *testing.T) {
	in := " Some.One+tag@Example.COM "
	if got := SanitizeOnChange(KindEmail, in); got != in {
		t.Errorf("SanitizeOnChange(email, %q) = %q, want unchanged", in, got)
	}
}

func TestValidateOnBlur(t *testing.T) {
	tests := []struct {
		kind    Kind
		in      string
		wantVal string
		wantMsg string
	}{
		{KindPhone, "573121234567", "573121234567", ""},
		{KindPhone, "12345", "12345", MsgNumeric},
		{KindID, "1234567890123456", "1234567890123456", MsgNumeric},
		{KindID, "123456", "123456", ""},
		{KindID, "", "", ""},
		{KindNames, "Ana María  ", "Ana María", ""},
		{KindNames, "Ana1", "Ana1", MsgNames},
		{KindEmail, "not-an-email", "not-an-email", MsgEmail},
		{KindEmail, "user@domain.co", "user@domain.co", ""},
		{KindEmail, "user@domain.c", "user@domain.c", MsgEmail},
		{KindEmail, "user@domain.co \t", "user@domain.co", ""},
		{KindPlain, "  libre  ", "  libre", ""},
	}
	for _, tt := range tests {
		gotVal, gotMsg := ValidateOnBlur(tt.kind, tt.in)
		if gotVal != tt.wantVal || gotMsg != tt.wantMsg {
			t.Errorf("ValidateOnBlur(%s, %q) = (%q, %q), want (%q, %q)",
				tt.kind, tt.in, gotVal, gotMsg, tt.wantVal, tt.wantMsg)
		}
	}
}

func randString(rng *rand.Rand, pool []rune, max int) string {
	n := rng.Intn(max + 1)
	b := make([]rune, n)
	for i := range b {
		b[i] = pool[rng.Intn(len(pool))]
	}
	return string(b)
}
