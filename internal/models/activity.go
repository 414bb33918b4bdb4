package models

import (
	"fmt"
	"strings"
	"time"
)

// ActivityType discriminates what an activity row records. CREATED_* rows
// carry AuthorID; UPDATED_* rows carry OldValue/NewValue.
type ActivityType string

const (
	ActivityCreatedIssue    ActivityType = "CREATED_ISSUE"
	ActivityCreatedComment  ActivityType = "CREATED_COMMENT"
	ActivityUpdatedAssignee ActivityType = "UPDATED_ASSIGNEE"
	ActivityUpdatedStatus   ActivityType = "UPDATED_STATUS"
	ActivityUpdatedPriority ActivityType = "UPDATED_PRIORITY"
)

// ParseActivityType matches an activity type name case-insensitively.
func ParseActivityType(s string) (ActivityType, error) {
	for _, t := range []ActivityType{
		ActivityCreatedIssue, ActivityCreatedComment,
		ActivityUpdatedAssignee, ActivityUpdatedStatus, ActivityUpdatedPriority,
	} {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("models: unknown activity type %q", s)
}

// IsUpdate reports whether the type records a field change (old/new pair)
// rather than a creation.
func (t ActivityType) IsUpdate() bool {
	return strings.HasPrefix(string(t), "UPDATED_")
}

// Activity is an append-only audit row for one issue event. Rows are never
// updated or individually deleted; they go away only when their issue does.
type Activity struct {
	ID        int          `gorm:"primaryKey"`
	IssueID   int          `gorm:"index;not null"`
	Type      ActivityType `gorm:"size:32;not null"`
	AuthorID  *int         // set for CREATED_* rows
	OldValue  *string      `gorm:"size:255"` // set for UPDATED_* rows
	NewValue  *string      `gorm:"size:255"` // set for UPDATED_* rows
	CreatedAt time.Time
}
