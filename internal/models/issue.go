package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IssueStatus is the workflow state of an issue. No transition graph is
// enforced; any known status may be set at any time.
type IssueStatus string

const (
	StatusNew            IssueStatus = "NEW"
	StatusTriage         IssueStatus = "TRIAGE"
	StatusTodo           IssueStatus = "TODO"
	StatusInProgress     IssueStatus = "IN_PROGRESS"
	StatusWaitingForTeam IssueStatus = "WAITING_FOR_TEAM"
	StatusCodeReview     IssueStatus = "CODE_REVIEW"
	StatusDone           IssueStatus = "DONE"
	StatusCanceled       IssueStatus = "CANCELED"
)

var issueStatuses = []IssueStatus{
	StatusNew, StatusTriage, StatusTodo, StatusInProgress,
	StatusWaitingForTeam, StatusCodeReview, StatusDone, StatusCanceled,
}

// ParseIssueStatus matches a status name case-insensitively.
func ParseIssueStatus(s string) (IssueStatus, error) {
	for _, st := range issueStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("models: unknown issue status %q", s)
}

// IssuePriority is the urgency of an issue. Unset priority is persisted as
// NULL and rendered as NORMAL.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "LOW"
	PriorityNormal IssuePriority = "NORMAL"
	PriorityHigh   IssuePriority = "HIGH"
)

// ParseIssuePriority matches a priority name case-insensitively.
func ParseIssuePriority(s string) (IssuePriority, error) {
	for _, p := range []IssuePriority{PriorityLow, PriorityNormal, PriorityHigh} {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("models: unknown issue priority %q", s)
}

// Project owns issues and provides the short-name prefix for their keys.
type Project struct {
	ID          int    `gorm:"primaryKey"`
	ShortName   string `gorm:"size:6;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
	CreatedAt   time.Time

	Issues []Issue    `gorm:"foreignKey:ProjectID;constraint:OnDelete:SET NULL"`
	Keys   []IssueKey `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// Issue is the core work item.
//
// (ProjectID, IDInsideProject) is unique and monotonically assigned per
// project; allocation is serialized by locking the project row inside the
// creation transaction.
type Issue struct {
	ID              int            `gorm:"primaryKey"`
	IDInsideProject int            `gorm:"index:idx_project_seq,unique"`
	ProjectID       *int           `gorm:"index:idx_project_seq,unique"`
	Title           string         `gorm:"size:255;not null"`
	Description     string         `gorm:"size:1000"`
	Status          IssueStatus    `gorm:"size:32;default:NEW"`
	Priority        *IssuePriority `gorm:"size:16"`
	AuthorID        int            `gorm:"not null;index"`
	AssigneeID      *int           `gorm:"index"`
	TeamID          *int           `gorm:"index"`
	DueDate         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Author     User       `gorm:"foreignKey:AuthorID"`
	Assignee   *User      `gorm:"foreignKey:AssigneeID"`
	Project    *Project   `gorm:"foreignKey:ProjectID"`
	Team       *Team      `gorm:"foreignKey:TeamID"`
	Key        *IssueKey  `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE"`
	Comments   []Comment  `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE"`
	Activities []Activity `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE"`
}

// IssueKey is the human-readable issue identifier, e.g. "ENG-42".
// Immutable once created.
type IssueKey struct {
	ID        int    `gorm:"primaryKey"`
	KeyString string `gorm:"size:64;uniqueIndex:idx_project_keystring;not null"`
	ProjectID int    `gorm:"uniqueIndex:idx_project_keystring"`
	IssueID   int    `gorm:"uniqueIndex"`
	CreatedAt time.Time
}

// FormatKey builds the key string for an issue sequence number in a project.
func FormatKey(shortName string, idInsideProject int) string {
	return fmt.Sprintf("%s-%d", shortName, idInsideProject)
}

// SplitKey splits a key string on its last dash into the project short name
// and the sequence number. A short name containing a dash is ambiguous;
// project validation forbids dashes so only legacy data could hit that.
func SplitKey(key string) (shortName string, seq int, err error) {
	i := strings.LastIndex(key, "-")
	if i < 0 {
		return "", 0, fmt.Errorf("models: key %q has no sequence part", key)
	}
	n, err := strconv.Atoi(key[i+1:])
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("models: key %q has invalid sequence part", key)
	}
	return key[:i], n, nil
}
