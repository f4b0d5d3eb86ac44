package publishers

import (
	"time"

	"github.com/google/uuid"
)

// Actions reported by the CLI after a successful state-changing call.
const (
	ActionLogin         = "session.login"
	ActionLogout        = "session.logout"
	ActionRegister      = "user.register"
	ActionBlogCreate    = "blog.create"
	ActionCommentCreate = "comment.create"
	ActionCommentDelete = "comment.delete"
)

// Event represents the payload published downstream.
type Event struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	Profile      string    `json:"profile"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   int64     `json:"resource_id,omitempty"`
	Resource     any       `json:"resource,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewEvent constructs an Event for action performed under profile.
func NewEvent(action, profile, resourceType string, resourceID int64, resource any) Event {
	return Event{
		ID:           uuid.NewString(),
		Action:       action,
		Profile:      profile,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Resource:     resource,
		OccurredAt:   time.Now().UTC(),
	}
}

// groupID orders events per profile on FIFO sinks.
func (e Event) groupID() string {
	if e.Profile == "" {
		return "default"
	}
	return e.Profile
}

// attributes are the routing attributes attached by queue/topic sinks. Empty values
// are left out since SQS and SNS reject them.
func (e Event) attributes() map[string]string {
	attrs := make(map[string]string, 3)
	for k, v := range map[string]string{
		"action":        e.Action,
		"profile":       e.Profile,
		"resource_type": e.ResourceType,
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs
}
