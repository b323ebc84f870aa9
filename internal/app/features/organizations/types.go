// internal/app/features/organizations/types.go
package organizations

import (
	"time"

	"github.com/dalemusser/eventhub/internal/domain/models"
)

type createInput struct {
	Name string `json:"name" validate:"notblank,max=200"`
}

type renameInput struct {
	Name string `json:"name" validate:"notblank,max=200"`
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=active disabled"`
}

// assignmentsInput lists the position and role ids registration links may
// carry. Ids are opaque to this service.
type assignmentsInput struct {
	Positions []string `json:"positions" validate:"max=200,dive,required,nospace,max=100"`
	Roles     []string `json:"roles" validate:"max=200,dive,required,nospace,max=100"`
}

// orgSummary is the list view of one organization. The property schema is
// served by the properties feature.
type orgSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Properties int       `json:"properties"`
	Positions  []string  `json:"positions"`
	Roles      []string  `json:"roles"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func summarize(o models.Organization) orgSummary {
	return orgSummary{
		ID:         o.ID.Hex(),
		Name:       o.Name,
		Status:     o.Status,
		Properties: len(o.UserProperties),
		Positions:  nonNil(o.Positions),
		Roles:      nonNil(o.Roles),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// uniq drops repeated ids, keeping first occurrences in order.
func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
