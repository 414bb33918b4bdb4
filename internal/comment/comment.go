// Package comment manages user remarks on issues.
package comment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/m-troja/taskstorm/internal/activity"
	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/models"
	"github.com/m-troja/taskstorm/internal/notify"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"github.com/m-troja/taskstorm/internal/user"
	"gorm.io/gorm"
)

// Create validates and persists a new comment, records the activity, and
// pushes a best-effort notification.
func Create(ctx context.Context, db *gorm.DB, notifier notify.Notifier, issueID, authorID int, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, taskerr.New(taskerr.BadRequest, "comment content cannot be empty")
	}

	var is models.Issue
	err := db.Preload("Key").Preload("Author").Preload("Assignee").
		First(&is, "id = ?", issueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerr.New(taskerr.IssueNotFound, "issue %d was not found", issueID)
	}
	if err != nil {
		return nil, fmt.Errorf("comment: load issue %d: %w", issueID, err)
	}
	if _, err := user.GetByID(db, authorID); err != nil {
		return nil, err
	}

	c := models.Comment{IssueID: issueID, AuthorID: authorID, Content: content}
	if err := db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("comment: create on issue %d: %w", issueID, err)
	}

	if _, err := activity.RecordCreated(db, models.ActivityCreatedComment, issueID, authorID); err != nil {
		log.Printf("comment: record activity: %v", err)
	}
	if notifier != nil {
		notifier.Event(ctx, notify.EventCommentCreated, dto.FromIssueSlack(&is))
	}
	return GetByID(db, c.ID)
}

// Edit replaces a comment's content.
func Edit(db *gorm.DB, id int, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, taskerr.New(taskerr.BadRequest, "comment content cannot be empty")
	}
	c, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}
	if err := db.Model(c).Update("content", content).Error; err != nil {
		return nil, fmt.Errorf("comment: edit %d: %w", id, err)
	}
	return GetByID(db, id)
}

// GetByID fetches a comment with its author and attachments loaded.
func GetByID(db *gorm.DB, id int) (*models.Comment, error) {
	var c models.Comment
	err := db.Preload("Author").Preload("Attachments").First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerr.New(taskerr.ContentNotFound, "comment %d was not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("comment: get %d: %w", id, err)
	}
	return &c, nil
}

// GetByIssueID returns an issue's comments, oldest first.
func GetByIssueID(db *gorm.DB, issueID int) ([]models.Comment, error) {
	var comments []models.Comment
	err := db.Preload("Author").Preload("Attachments").
		Where("issue_id = ?", issueID).Order("id").Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("comment: list for issue %d: %w", issueID, err)
	}
	return comments, nil
}

// DeleteByID removes a comment and its attachment rows.
func DeleteByID(db *gorm.DB, id int) error {
	if _, err := GetByID(db, id); err != nil {
		return err
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentAttachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comment{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("comment: delete %d: %w", id, err)
	}
	return nil
}

// DeleteAllByIssueID removes every comment of an issue.
func DeleteAllByIssueID(db *gorm.DB, issueID int) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		var ids []int
		if err := tx.Model(&models.Comment{}).Where("issue_id = ?", issueID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentAttachment{}).Error; err != nil {
			return err
		}
		return tx.Where("issue_id = ?", issueID).Delete(&models.Comment{}).Error
	})
	if err != nil {
		return fmt.Errorf("comment: delete all for issue %d: %w", issueID, err)
	}
	return nil
}
