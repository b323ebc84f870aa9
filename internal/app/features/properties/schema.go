// internal/app/features/properties/schema.go
package properties

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/eventhub/internal/app/system/formengine"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

var (
	errDuplicateName = errors.New("a property with this name already exists")
	errNoProperty    = errors.New("property not found")
)

// schemaError is a rule violation tied to one input field.
type schemaError struct {
	Field   string
	Message string
}

func (e *schemaError) Error() string { return e.Field + ": " + e.Message }

// toSchema converts validated input. Visible defaults to true.
func (in propertyInput) toSchema() models.PropertySchema {
	p := models.PropertySchema{
		Name:      strings.TrimSpace(in.Name),
		Label:     strings.TrimSpace(in.Label),
		Type:      in.Type,
		Mandatory: in.Mandatory,
		Visible:   in.Visible == nil || *in.Visible,
	}
	for _, o := range in.Options {
		opt := models.PropertyOption{Value: strings.TrimSpace(o.Value), Label: strings.TrimSpace(o.Label)}
		if opt.Label == "" {
			opt.Label = opt.Value
		}
		p.Options = append(p.Options, opt)
	}
	if in.Dependency != nil {
		p.Dependency = &models.PropertyDependency{
			FieldName:     strings.TrimSpace(in.Dependency.FieldName),
			TriggerValues: in.Dependency.TriggerValues,
		}
	}
	return p
}

func indexOf(props []models.PropertySchema, name string) int {
	for i, p := range props {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// addProperty appends p to the render order.
func addProperty(current []models.PropertySchema, p models.PropertySchema) ([]models.PropertySchema, error) {
	props := formengine.SortFields(current)
	if indexOf(props, p.Name) >= 0 {
		return nil, errDuplicateName
	}
	props = append(props, p)
	if err := checkSchema(props); err != nil {
		return nil, err
	}
	return props, nil
}

// replaceProperty swaps the property called name for p in place. A rename
// carries over to the dependencies that point at the old name.
func replaceProperty(current []models.PropertySchema, name string, p models.PropertySchema) ([]models.PropertySchema, error) {
	props := formengine.SortFields(current)
	i := indexOf(props, name)
	if i < 0 {
		return nil, errNoProperty
	}
	if p.Name != name {
		if indexOf(props, p.Name) >= 0 {
			return nil, errDuplicateName
		}
		for j := range props {
			if d := props[j].Dependency; d != nil && d.FieldName == name {
				dep := *d
				dep.FieldName = p.Name
				props[j].Dependency = &dep
			}
		}
	}
	props[i] = p
	if err := checkSchema(props); err != nil {
		return nil, err
	}
	return props, nil
}

// removeProperty drops name. Properties that depend on it block removal.
func removeProperty(current []models.PropertySchema, name string) ([]models.PropertySchema, error) {
	props := formengine.SortFields(current)
	i := indexOf(props, name)
	if i < 0 {
		return nil, errNoProperty
	}
	for _, p := range props {
		if p.Dependency != nil && p.Dependency.FieldName == name {
			return nil, &schemaError{Field: "name", Message: fmt.Sprintf("%q depends on this property", p.Name)}
		}
	}
	return append(props[:i:i], props[i+1:]...), nil
}

// reorderProperties returns current in the order given by names, which
// must list every property exactly once.
func reorderProperties(current []models.PropertySchema, names []string) ([]models.PropertySchema, error) {
	if len(names) != len(current) {
		return nil, &schemaError{Field: "names", Message: "must list every property exactly once"}
	}
	out := make([]models.PropertySchema, 0, len(names))
	used := make(map[string]bool, len(names))
	for _, n := range names {
		i := indexOf(current, n)
		if i < 0 || used[n] {
			return nil, &schemaError{Field: "names", Message: "must list every property exactly once"}
		}
		used[n] = true
		out = append(out, current[i])
	}
	return out, nil
}

// checkSchema enforces the cross-property rules: list properties carry
// options, and dependencies point at another existing property without
// forming a cycle.
func checkSchema(props []models.PropertySchema) error {
	byName := make(map[string]models.PropertySchema, len(props))
	for _, p := range props {
		byName[p.Name] = p
	}
	for _, p := range props {
		if p.Type == models.FieldList && len(p.Options) == 0 {
			return &schemaError{Field: "options", Message: fmt.Sprintf("list property %q needs at least one option", p.Name)}
		}
		if p.Dependency == nil {
			continue
		}
		target := p.Dependency.FieldName
		if target == p.Name {
			return &schemaError{Field: "dependency", Message: "a property cannot depend on itself"}
		}
		if _, ok := byName[target]; !ok {
			return &schemaError{Field: "dependency", Message: fmt.Sprintf("unknown property %q", target)}
		}
		seen := map[string]bool{p.Name: true}
		for cur := byName[target]; cur.Dependency != nil; cur = byName[cur.Dependency.FieldName] {
			if seen[cur.Name] {
				return &schemaError{Field: "dependency", Message: "dependencies form a cycle"}
			}
			seen[cur.Name] = true
		}
	}
	return nil
}
