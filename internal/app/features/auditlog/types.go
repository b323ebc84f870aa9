// internal/app/features/auditlog/types.go
package auditlog

import "time"

// maxLimit caps one page of events.
const maxLimit = 500

// listItem is one audit event as served to admins. Actor and target are
// resolved to email addresses when the account still exists.
type listItem struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	Category       string            `json:"category"`
	EventType      string            `json:"event_type"`
	OrganizationID string            `json:"organization_id,omitempty"`
	ActorID        string            `json:"actor_id,omitempty"`
	Actor          string            `json:"actor,omitempty"`
	UserID         string            `json:"user_id,omitempty"`
	User           string            `json:"user,omitempty"`
	IP             string            `json:"ip"`
	Success        bool              `json:"success"`
	FailureReason  string            `json:"failure_reason,omitempty"`
	Details        map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Events []listItem `json:"events"`
}
