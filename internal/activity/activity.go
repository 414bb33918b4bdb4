// Package activity records the append-only audit log of issue events.
// Rows are written once and never updated; they disappear only when their
// issue is deleted.
package activity

import (
	"fmt"

	"github.com/m-troja/taskstorm/internal/models"
	"gorm.io/gorm"
)

// RecordCreated appends a creation row (issue or comment) attributed to an
// author.
func RecordCreated(db *gorm.DB, typ models.ActivityType, issueID, authorID int) (*models.Activity, error) {
	if typ.IsUpdate() {
		return nil, fmt.Errorf("activity: %s is not a creation type", typ)
	}
	a := models.Activity{
		IssueID:  issueID,
		Type:     typ,
		AuthorID: &authorID,
	}
	if err := db.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("activity: record %s for issue %d: %w", typ, issueID, err)
	}
	return &a, nil
}

// RecordUpdated appends a field-change row carrying the old and new values.
func RecordUpdated(db *gorm.DB, typ models.ActivityType, issueID int, oldValue, newValue string) (*models.Activity, error) {
	if !typ.IsUpdate() {
		return nil, fmt.Errorf("activity: %s is not an update type", typ)
	}
	a := models.Activity{
		IssueID:  issueID,
		Type:     typ,
		OldValue: &oldValue,
		NewValue: &newValue,
	}
	if err := db.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("activity: record %s for issue %d: %w", typ, issueID, err)
	}
	return &a, nil
}

// ListByIssueID returns an issue's activity rows, oldest first.
func ListByIssueID(db *gorm.DB, issueID int) ([]models.Activity, error) {
	var acts []models.Activity
	err := db.Where("issue_id = ?", issueID).Order("id").Find(&acts).Error
	if err != nil {
		return nil, fmt.Errorf("activity: list for issue %d: %w", issueID, err)
	}
	return acts, nil
}
