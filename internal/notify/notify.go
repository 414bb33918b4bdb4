// Package notify delivers best-effort issue event notifications to the
// chat bridge. Delivery failures are logged and swallowed; no operation
// ever fails because a notification could not be sent.
package notify

import (
	"context"

	"github.com/m-troja/taskstorm/internal/dto"
)

// Event names sent to the chat bridge.
const (
	EventIssueCreated   = "ISSUE_CREATED"
	EventIssueAssigned  = "ISSUE_ASSIGNED"
	EventUpdateStatus   = "UPDATE_STATUS"
	EventUpdatePriority = "UPDATE_PRIORITY"
	EventUpdateDueDate  = "UPDATE_DUEDATE"
	EventCommentCreated = "COMMENT_CREATED"
	EventIssueDeleted   = "ISSUE_DELETED"
)

// Notifier pushes one issue event to a chat destination.
type Notifier interface {
	Event(ctx context.Context, event string, issue dto.SlackIssue) error
}

// Nop is a Notifier that discards every event. Used in tests and when no
// chat bridge is configured.
type Nop struct{}

// Event implements Notifier.
func (Nop) Event(context.Context, string, dto.SlackIssue) error { return nil }
