// Package formengine renders, cleans and validates organization-defined
// property forms.
//
// A Form holds one schema and the values typed against it. Every change goes
// through Change, which sanitizes the input, applies the geo cascade and then
// reconciles visibility in a single pass: fields that stop rendering are reset
// to their blank value before the next read. A Form is not safe for
// concurrent use; formsession serializes access to it.
package formengine

import (
	"errors"
	"strings"

	"github.com/dalemusser/eventhub/internal/app/system/geo"
	"github.com/dalemusser/eventhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

var (
	// ErrUnknownField is returned for a field name the schema does not declare.
	ErrUnknownField = errors.New("unknown field")
	// ErrFieldHidden is returned when changing a field that is not rendered.
	ErrFieldHidden = errors.New("field is not visible")
)

type geoRole int

const (
	roleNone geoRole = iota
	roleCountry
	roleDepartment
	roleCity
	rolePhoneCode
)

type field struct {
	schema models.PropertySchema
	widget Widget
	kind   Kind
	role   geoRole
	label  string
}

// Form is one open registration or edit form.
type Form struct {
	conv    Conventions
	fields  []field
	byName  map[string]int
	values  Values
	errors  map[string]string
	visible map[string]bool

	country    string
	department string
	city       string
	phoneCode  string
}

// New builds a create-mode form with every field blank.
func New(schema []models.PropertySchema, conv Conventions) *Form {
	f := build(schema, conv)
	f.reconcile()
	return f
}

// NewEdit builds a form pre-filled from an existing properties record.
// Keys the schema does not declare are dropped.
func NewEdit(schema []models.PropertySchema, conv Conventions, existing map[string]any) *Form {
	f := build(schema, conv)
	for name, raw := range existing {
		i, ok := f.byName[name]
		if !ok {
			continue
		}
		f.values[name] = coerce(f.fields[i].widget, raw)
	}
	if f.country != "" {
		if c, ok := geo.ResolveCountry(f.values.String(f.country)); ok {
			f.values[f.country] = c.Name
		}
		if f.values.String(f.phoneCode) == "" {
			f.writePhoneCode(f.values.String(f.country))
		}
	}
	f.reconcile()
	return f
}

func build(schema []models.PropertySchema, conv Conventions) *Form {
	conv = conv.withDefaults()
	sorted := SortFields(schema)

	f := &Form{
		conv:    conv,
		fields:  make([]field, 0, len(sorted)),
		byName:  make(map[string]int, len(sorted)),
		values:  make(Values, len(sorted)),
		errors:  make(map[string]string),
		visible: make(map[string]bool, len(sorted)),
	}

	for _, s := range sorted {
		if _, dup := f.byName[s.Name]; dup || strings.TrimSpace(s.Name) == "" {
			continue
		}
		fl := field{
			schema: s,
			widget: WidgetFor(s.Type),
			kind:   Classify(s),
			label:  htmlsanitize.PlainText(s.Label),
		}
		switch {
		case f.country == "" && (s.Type == models.FieldCountry || s.Name == conv.CountryField):
			fl.role, fl.widget, f.country = roleCountry, WidgetCountry, s.Name
		case f.department == "" && (s.Type == models.FieldDepartment || s.Name == conv.DepartmentField):
			fl.role, fl.widget, f.department = roleDepartment, WidgetDepartment, s.Name
		case f.city == "" && (s.Type == models.FieldCity || s.Name == conv.CityField):
			fl.role, fl.widget, f.city = roleCity, WidgetCity, s.Name
		case f.phoneCode == "" && s.Name == conv.PhoneCodeField:
			fl.role, f.phoneCode = rolePhoneCode, s.Name
		}
		if fl.role != roleNone {
			fl.kind = KindPlain
		}

		f.byName[s.Name] = len(f.fields)
		f.fields = append(f.fields, fl)
		f.values[s.Name] = Blank(s.Type)
	}
	return f
}

// Change stores a new value for name and brings the rest of the form in
// line with it.
func (f *Form) Change(name string, raw any) error {
	i, ok := f.byName[name]
	if !ok {
		return ErrUnknownField
	}
	if !f.visible[name] {
		return ErrFieldHidden
	}
	fl := f.fields[i]

	v := coerce(fl.widget, raw)
	if s, ok := v.(string); ok && fl.widget.Typed() {
		v = SanitizeOnChange(fl.kind, s)
	}

	switch fl.role {
	case roleCountry:
		f.changeCountry(v.(string))
	case roleDepartment:
		f.changeDepartment(v.(string))
	case roleCity:
		f.changeCity(v.(string))
	default:
		f.values[name] = v
	}

	f.reconcile()
	return nil
}

// Blur runs the leave-field check for name: trailing whitespace is trimmed
// and the shape rules of the field kind are applied. The field error is set
// or cleared accordingly and returned.
func (f *Form) Blur(name string) (string, error) {
	i, ok := f.byName[name]
	if !ok {
		return "", ErrUnknownField
	}
	fl := f.fields[i]
	if !fl.widget.Typed() || !f.visible[name] {
		return f.errors[name], nil
	}

	trimmed, msg := ValidateOnBlur(fl.kind, f.values.String(name))
	f.values[name] = trimmed
	if msg == "" {
		delete(f.errors, name)
	} else {
		f.errors[name] = msg
	}
	return msg, nil
}

// reconcile recomputes visibility and resets values of fields that are no
// longer shown. It repeats until nothing changes, since clearing or hiding
// one field can hide fields that depend on it.
func (f *Form) reconcile() {
	for pass := 0; pass <= len(f.fields); pass++ {
		changed := false
		view := f.renderView()
		for _, fl := range f.fields {
			name := fl.schema.Name
			var want any
			shown := ShouldRender(fl.schema, view)

			switch {
			case !shown:
				want = Blank(fl.schema.Type)
			case f.geoHidden(fl):
				shown = false
				want = f.conv.Sentinel
			case fl.role == roleDepartment || fl.role == roleCity:
				if f.values.String(name) == f.conv.Sentinel {
					want = ""
				}
			}

			if was, known := f.visible[name]; !known || was != shown {
				changed = true
			}
			f.visible[name] = shown
			if !shown {
				delete(f.errors, name)
			}
			if want != nil && !equalValue(f.values[name], want) {
				f.values[name] = want
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// renderView is the value map dependencies are evaluated against. A field
// that is not rendered is left out, so neither the sentinel held by a
// geo-hidden department or city nor a hidden checkbox's false satisfies a
// dependency.
func (f *Form) renderView() Values {
	view := f.values.Clone()
	for _, fl := range f.fields {
		name := fl.schema.Name
		if shown, known := f.visible[name]; (known && !shown) || f.geoHidden(fl) {
			delete(view, name)
		}
	}
	return view
}

// Visible reports whether name currently renders.
func (f *Form) Visible(name string) bool {
	return f.visible[name]
}

// Label returns the plain-text label of name.
func (f *Form) Label(name string) string {
	if i, ok := f.byName[name]; ok {
		return f.fields[i].label
	}
	return ""
}

// Value returns the stored value of name.
func (f *Form) Value(name string) any {
	return f.values[name]
}

// Values returns a copy of the whole value map.
func (f *Form) Values() Values {
	return f.values.Clone()
}

// Errors returns the current field errors keyed by field name.
func (f *Form) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Payload returns the values of every schema-declared field.
func (f *Form) Payload() map[string]any {
	vals := f.values.Clone()
	out := make(map[string]any, len(f.fields))
	for _, fl := range f.fields {
		out[fl.schema.Name] = vals[fl.schema.Name]
	}
	return out
}

// IDValue returns the value of the first rendered ID/document field.
func (f *Form) IDValue() string {
	return f.firstOfKind(KindID)
}

// EmailValue returns the value of the first rendered email field.
func (f *Form) EmailValue() string {
	return strings.TrimSpace(f.firstOfKind(KindEmail))
}

// PhoneValue returns the value of the first rendered phone field.
func (f *Form) PhoneValue() string {
	return f.firstOfKind(KindPhone)
}

// NamesValue returns the value of the first rendered names field.
func (f *Form) NamesValue() string {
	return strings.TrimSpace(f.firstOfKind(KindNames))
}

func (f *Form) firstOfKind(k Kind) string {
	if name, ok := f.FieldOfKind(k); ok {
		return f.values.String(name)
	}
	return ""
}

// FieldOfKind returns the name of the first rendered field of kind k.
func (f *Form) FieldOfKind(k Kind) (string, bool) {
	for _, fl := range f.fields {
		if fl.kind == k && f.visible[fl.schema.Name] {
			return fl.schema.Name, true
		}
	}
	return "", false
}

// FieldState is the render view of one visible field.
type FieldState struct {
	Name      string                  `json:"name"`
	Label     string                  `json:"label"`
	RichLabel string                  `json:"rich_label,omitempty"`
	Type      models.FieldType        `json:"type"`
	Widget    Widget                  `json:"widget"`
	Kind      Kind                    `json:"kind"`
	Mandatory bool                    `json:"mandatory"`
	Value     any                     `json:"value"`
	Error     string                  `json:"error,omitempty"`
	Options   []models.PropertyOption `json:"options,omitempty"`
}

// Fields returns the rendered fields in schema order.
func (f *Form) Fields() []FieldState {
	vals := f.values.Clone()
	out := make([]FieldState, 0, len(f.fields))
	for _, fl := range f.fields {
		name := fl.schema.Name
		if !f.visible[name] {
			continue
		}
		fs := FieldState{
			Name:      name,
			Label:     fl.label,
			Type:      fl.schema.Type,
			Widget:    fl.widget,
			Kind:      fl.kind,
			Mandatory: f.effectiveMandatory(fl),
			Value:     vals[name],
			Error:     f.errors[name],
			Options:   f.options(fl),
		}
		if !htmlsanitize.IsPlainText(fl.schema.Label) {
			fs.RichLabel = htmlsanitize.Sanitize(fl.schema.Label)
		}
		out = append(out, fs)
	}
	return out
}

// Options returns the current option list of name.
func (f *Form) Options(name string) ([]models.PropertyOption, error) {
	i, ok := f.byName[name]
	if !ok {
		return nil, ErrUnknownField
	}
	return f.options(f.fields[i]), nil
}

func (f *Form) options(fl field) []models.PropertyOption {
	switch fl.widget {
	case WidgetList:
		return fl.schema.Options
	case WidgetCountry:
		if len(fl.schema.Options) > 0 {
			return fl.schema.Options
		}
		return geo.CountryOptions()
	case WidgetDepartment:
		return geo.StateOptions(f.countryValue())
	case WidgetCity:
		return geo.CityOptions(f.countryValue(), f.values.String(f.department))
	default:
		return nil
	}
}

func (f *Form) effectiveMandatory(fl field) bool {
	if fl.schema.Mandatory {
		return true
	}
	if fl.role == roleDepartment || fl.role == roleCity {
		return f.country != "" && f.conv.IsSpecial(f.values.String(f.country))
	}
	return false
}
