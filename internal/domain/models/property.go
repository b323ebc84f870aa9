// internal/domain/models/property.go
package models

// FieldType is the widget/validation type of an organization-defined property.
type FieldType string

const (
	FieldText       FieldType = "text"
	FieldEmail      FieldType = "email"
	FieldBoolean    FieldType = "boolean"
	FieldList       FieldType = "list"
	FieldCodeArea   FieldType = "codearea"
	FieldTextArea   FieldType = "textarea"
	FieldCountry    FieldType = "country"
	FieldCity       FieldType = "city"
	FieldDepartment FieldType = "department"
)

// FieldTypes lists every accepted FieldType in display order.
var FieldTypes = []FieldType{
	FieldText, FieldEmail, FieldBoolean, FieldList, FieldCodeArea,
	FieldTextArea, FieldCountry, FieldCity, FieldDepartment,
}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// PropertyOption is one selectable entry of a list property.
type PropertyOption struct {
	Value string `bson:"value" json:"value"`
	Label string `bson:"label" json:"label"`
}

// PropertyDependency makes a property visible only while FieldName holds
// one of TriggerValues (or, with no triggers, any meaningful value).
type PropertyDependency struct {
	FieldName     string   `bson:"field_name" json:"fieldName"`
	TriggerValues []string `bson:"trigger_values,omitempty" json:"triggerValues,omitempty"`
}

// PropertySchema is one organization-defined user property.
type PropertySchema struct {
	Name        string              `bson:"name" json:"name"`
	Label       string              `bson:"label" json:"label"`
	Type        FieldType           `bson:"type" json:"type"`
	Mandatory   bool                `bson:"mandatory" json:"mandatory"`
	Visible     bool                `bson:"visible" json:"visible"`
	OrderWeight int                 `bson:"order_weight" json:"order_weight"`
	Index       int                 `bson:"index" json:"index"`
	Options     []PropertyOption    `bson:"options,omitempty" json:"options,omitempty"`
	Dependency  *PropertyDependency `bson:"dependency,omitempty" json:"dependency,omitempty"`
}
