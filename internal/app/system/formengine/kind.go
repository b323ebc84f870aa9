package formengine

import (
	"strings"

	"github.com/dalemusser/eventhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Widget is how a field renders. It is resolved from the schema type once,
// when the form is built.
type Widget string

const (
	WidgetText       Widget = "text"
	WidgetTextArea   Widget = "textarea"
	WidgetBoolean    Widget = "boolean"
	WidgetList       Widget = "list"
	WidgetCountry    Widget = "country"
	WidgetDepartment Widget = "department"
	WidgetCity       Widget = "city"
)

// WidgetFor maps a schema type to its widget. Unknown types render as text.
func WidgetFor(t models.FieldType) Widget {
	switch t {
	case models.FieldBoolean:
		return WidgetBoolean
	case models.FieldList:
		return WidgetList
	case models.FieldTextArea, models.FieldCodeArea:
		return WidgetTextArea
	case models.FieldCountry:
		return WidgetCountry
	case models.FieldDepartment:
		return WidgetDepartment
	case models.FieldCity:
		return WidgetCity
	default:
		return WidgetText
	}
}

// Typed reports whether the widget accepts free text.
func (w Widget) Typed() bool {
	return w == WidgetText || w == WidgetTextArea
}

// Kind selects the sanitize/validate rules applied to a text field.
type Kind string

const (
	KindPlain Kind = "plain"
	KindEmail Kind = "email"
	KindID    Kind = "id"
	KindPhone Kind = "phone"
	KindNames Kind = "names"
)

// Numeric reports whether the kind keeps digits only.
func (k Kind) Numeric() bool {
	return k == KindID || k == KindPhone
}

var idAliases = map[string]bool{
	"id":                    true,
	"cedula":                true,
	"documento":             true,
	"numero_documento":      true,
	"numerodocumento":       true,
	"numero_de_documento":   true,
	"documento_identidad":   true,
	"identificacion":        true,
	"numero_identificacion": true,
	"dni":                   true,
	"nit":                   true,
	"pasaporte":             true,
	"document":              true,
	"document_number":       true,
	"documentnumber":        true,
}

var idLabels = map[string]bool{
	"cedula":                   true,
	"documento":                true,
	"documento de identidad":   true,
	"numero de documento":      true,
	"numero de identificacion": true,
	"identificacion":           true,
	"document number":          true,
}

var phoneHints = []string{"phone", "cel", "tel"}

// contactHint marks a phone only when no name hint is present, so
// "nombre_contacto" is a name and "contacto" alone is a phone.
const contactHint = "contacto"

var nameExact = map[string]bool{
	"name": true, "names": true, "surname": true, "surnames": true,
	"first_name": true, "last_name": true, "firstname": true, "lastname": true,
}

var nameHints = []string{"nombre", "apellido"}

// Classify infers a field's validation kind from its type, name and label.
//
// Inference is by fixed alias lists and substrings. Only free-text types are
// classified; everything else is KindPlain. The checks run in this order and
// the first match wins:
//
//  1. email: FieldEmail, or "email"/"correo" in the name
//  2. ID: an exact alias of the name or label
//  3. phone: a phoneHints substring of the name or label
//  4. names: an exact nameExact match, then a nameHints substring
//  5. phone: the weak contactHint substring
//
// A schema-level kind tag would replace this function without touching its
// callers.
func Classify(f models.PropertySchema) Kind {
	w := WidgetFor(f.Type)
	if f.Type == models.FieldEmail {
		return KindEmail
	}
	if !w.Typed() {
		return KindPlain
	}

	name := text.Fold(strings.TrimSpace(f.Name))
	label := text.Fold(strings.TrimSpace(htmlsanitize.PlainText(f.Label)))

	if strings.Contains(name, "email") || strings.Contains(name, "correo") {
		return KindEmail
	}
	if idAliases[name] || idLabels[label] {
		return KindID
	}
	for _, h := range phoneHints {
		if strings.Contains(name, h) || strings.Contains(label, h) {
			return KindPhone
		}
	}
	if nameExact[name] || nameExact[label] {
		return KindNames
	}
	for _, h := range nameHints {
		if strings.Contains(name, h) || strings.Contains(label, h) {
			return KindNames
		}
	}
	if strings.Contains(name, contactHint) || strings.Contains(label, contactHint) {
		return KindPhone
	}
	return KindPlain
}
