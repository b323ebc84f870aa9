package formengine

import (
	"strings"

	"github.com/dalemusser/eventhub/internal/app/system/geo"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// FieldError is one violation found by Validate.
type FieldError struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// Validate runs the submit-time check over every rendered field and
// replaces the form's error set with the result. All violations are
// returned, in render order. Calling it again on unchanged values yields
// the same list.
func (f *Form) Validate() []FieldError {
	var out []FieldError
	errs := make(map[string]string)

	for _, fl := range f.fields {
		name := fl.schema.Name
		if !f.visible[name] {
			continue
		}
		msg := f.check(fl)
		if msg == "" {
			continue
		}
		errs[name] = msg
		out = append(out, FieldError{Field: name, Label: fl.label, Message: msg})
	}

	f.errors = errs
	return out
}

func (f *Form) check(fl field) string {
	v := f.values[fl.schema.Name]
	if !Meaningful(v) {
		if f.effectiveMandatory(fl) {
			return MsgRequired
		}
		return ""
	}

	s, isString := v.(string)
	if fl.widget.Typed() && isString {
		if msg := shapeError(fl.kind, strings.TrimRight(s, " \t\r\n")); msg != "" {
			return msg
		}
	}

	switch fl.widget {
	case WidgetList, WidgetCountry, WidgetDepartment, WidgetCity:
		arr, isArray := v.([]string)
		if !isString && !isArray {
			return MsgInvalidOption
		}
		opts := f.options(fl)
		if len(opts) == 0 {
			return ""
		}
		if isArray {
			for _, e := range arr {
				if !hasOption(fl, opts, e) {
					return MsgInvalidOption
				}
			}
			return ""
		}
		if isString && !hasOption(fl, opts, s) {
			return MsgInvalidOption
		}
	}
	return ""
}

// hasOption matches v against opts. City values are stored as the bare city
// name while options carry composite keys, so cities match on the name part.
func hasOption(fl field, opts []models.PropertyOption, v string) bool {
	folded := text.Fold(strings.TrimSpace(v))
	for _, o := range opts {
		candidate := o.Value
		if fl.widget == WidgetCity {
			candidate, _, _ = geo.SplitCityKey(o.Value)
		}
		if text.Fold(candidate) == folded {
			return true
		}
	}
	return false
}
