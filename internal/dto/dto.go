// Package dto defines the wire-format records returned by the API and the
// converters from persisted entities to them.
package dto

import "time"

// Issue is the JSON shape of an issue.
type Issue struct {
	ID          int        `json:"id"`
	Key         string     `json:"key"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AuthorID    int        `json:"authorId"`
	AssigneeID  int        `json:"assigneeId"`
	ProjectID   int        `json:"projectId"`
	TeamID      int        `json:"teamId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Comments    []Comment  `json:"comments"`
}

// SlackIssue is the issue shape sent to the chat bridge: author and
// assignee are identified by their Slack ids.
type SlackIssue struct {
	ID              int        `json:"id"`
	Key             string     `json:"key"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	AuthorSlackID   string     `json:"authorSlackId"`
	AssigneeSlackID string     `json:"assigneeSlackId"`
	ProjectID       int        `json:"projectId"`
	CreatedAt       time.Time  `json:"createdAt"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
}

// Comment is the JSON shape of a comment.
type Comment struct {
	ID            int       `json:"id"`
	IssueID       int       `json:"issueId"`
	Content       string    `json:"content"`
	AuthorID      int       `json:"authorId"`
	AuthorName    string    `json:"authorName"`
	AuthorSlackID string    `json:"authorSlackId"`
	AttachmentIDs []int     `json:"attachmentIds"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// User is the JSON shape of a user. The password digest and salt never
// leave the service layer.
type User struct {
	ID          int      `json:"id"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Teams       []string `json:"teams"`
	Disabled    bool     `json:"disabled"`
	SlackUserID string   `json:"slackUserId"`
}

// Team is the JSON shape of a team, with member and issue ids.
type Team struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Issues []int  `json:"issues"`
	Users  []int  `json:"users"`
}

// Project is the JSON shape of a project.
type Project struct {
	ID          int       `json:"id"`
	ShortName   string    `json:"shortName"`
	Description string    `json:"description"`
	Issues      []Issue   `json:"issues"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Activity is the JSON shape of an audit-log row.
type Activity struct {
	ID        int       `json:"id"`
	IssueID   int       `json:"issueId"`
	Type      string    `json:"type"`
	AuthorID  *int      `json:"authorId,omitempty"`
	OldValue  *string   `json:"oldValue,omitempty"`
	NewValue  *string   `json:"newValue,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Token is an issued credential with its expiry.
type Token struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// TokenPair is returned by login and token regeneration.
type TokenPair struct {
	AccessToken  Token `json:"accessToken"`
	RefreshToken Token `json:"refreshToken"`
}
