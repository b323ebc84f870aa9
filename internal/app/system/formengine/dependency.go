package formengine

import (
	"strconv"
	"strings"

	"github.com/dalemusser/eventhub/internal/domain/models"
)

// ShouldRender reports whether f is currently shown given values.
//
// A field with Visible=false never renders. Without a dependency it always
// renders. With trigger values it renders while the referenced value equals
// one of them (any overlap for arrays); with no triggers it renders while
// the referenced value is Meaningful. An absent referenced value matches
// nothing.
func ShouldRender(f models.PropertySchema, values Values) bool {
	if !f.Visible {
		return false
	}
	dep := f.Dependency
	if dep == nil || strings.TrimSpace(dep.FieldName) == "" {
		return true
	}

	ref := values[dep.FieldName]
	if len(dep.TriggerValues) == 0 {
		return Meaningful(ref)
	}

	triggers := make(map[string]bool, len(dep.TriggerValues))
	for _, t := range dep.TriggerValues {
		triggers[strings.TrimSpace(t)] = true
	}

	switch v := ref.(type) {
	case string:
		return triggers[strings.TrimSpace(v)]
	case bool:
		return triggers[strconv.FormatBool(v)]
	case []string:
		for _, s := range v {
			if triggers[strings.TrimSpace(s)] {
				return true
			}
		}
	}
	return false
}
