package formengine

import (
	"regexp"
	"strings"
)

// Field-level messages. Handlers surface these verbatim.
const (
	MsgRequired      = "this field is required"
	MsgNumeric       = "must contain only numbers and be 6-15 digits"
	MsgNames         = "only letters and spaces are allowed"
	MsgEmail         = "invalid email format"
	MsgInvalidOption = "select a valid option"
)

var (
	numericRe = regexp.MustCompile(`^[0-9]{6,15}$`)
	namesRe   = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿ \-]+$`)
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
)

// nameRune reports whether r may appear in a names/surnames value:
// ASCII and Latin-1 letters (accents, ñ), space and hyphen.
func nameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= 'À' && r <= 'ÿ' && r != '×' && r != '÷':
		return true
	case r == ' ', r == '-':
		return true
	}
	return false
}

// SanitizeOnChange cleans a keystroke-level value for kind k.
// Numeric kinds keep digits, name kinds keep name runes, everything else
// passes through untouched.
func SanitizeOnChange(k Kind, raw string) string {
	switch {
	case k.Numeric():
		return strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, raw)
	case k == KindNames:
		return strings.Map(func(r rune) rune {
			if nameRune(r) {
				return r
			}
			return -1
		}, raw)
	default:
		return raw
	}
}

// ValidateOnBlur trims trailing whitespace and checks the shape rules of k.
// It returns the trimmed value and an error message, empty when valid.
// An empty value is never a shape error; presence is checked on submit.
func ValidateOnBlur(k Kind, value string) (string, string) {
	v := strings.TrimRight(value, " \t\r\n")
	return v, shapeError(k, v)
}

func shapeError(k Kind, v string) string {
	if v == "" {
		return ""
	}
	switch {
	case k.Numeric():
		if !numericRe.MatchString(v) {
			return MsgNumeric
		}
	case k == KindNames:
		if !namesRe.MatchString(v) {
			return MsgNames
		}
	case k == KindEmail:
		if !emailRe.MatchString(strings.TrimSpace(v)) {
			return MsgEmail
		}
	}
	return ""
}
