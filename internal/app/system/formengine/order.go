package formengine

import (
	"sort"

	"github.com/dalemusser/eventhub/internal/domain/models"
)

// SortFields returns a copy of fields ordered by OrderWeight, then Index.
// Equal keys keep their input order.
func SortFields(fields []models.PropertySchema) []models.PropertySchema {
	out := make([]models.PropertySchema, len(fields))
	copy(out, fields)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderWeight != out[j].OrderWeight {
			return out[i].OrderWeight < out[j].OrderWeight
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// Renumber assigns OrderWeight and Index 1..N following the slice order.
func Renumber(fields []models.PropertySchema) []models.PropertySchema {
	out := make([]models.PropertySchema, len(fields))
	copy(out, fields)
	for i := range out {
		out[i].OrderWeight = i + 1
		out[i].Index = i + 1
	}
	return out
}
