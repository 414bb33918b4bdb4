package models

import "time"

// Comment is a user remark on an issue, optionally carrying attachments.
type Comment struct {
	ID        int    `gorm:"primaryKey"`
	IssueID   int    `gorm:"index;not null"`
	AuthorID  int    `gorm:"not null"`
	Content   string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Author      User                `gorm:"foreignKey:AuthorID"`
	Attachments []CommentAttachment `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"`
}

// CommentAttachment is the metadata row for an uploaded file. StoredName is
// a generated uuid-based filename; FileName is the client's original name.
type CommentAttachment struct {
	ID         int    `gorm:"primaryKey"`
	CommentID  int    `gorm:"index;not null"`
	StoredName string `gorm:"size:64;uniqueIndex;not null"`
	Path       string `gorm:"size:255"` // relative to the server root, e.g. "uploads/<uuid>.png"
	FileName   string `gorm:"size:255"`
	CreatedAt  time.Time
}
