// Package issue implements the core work-item operations: creation with
// per-project key allocation, lookups, field updates with activity
// recording, and deletion.
package issue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-troja/taskstorm/internal/activity"
	"github.com/m-troja/taskstorm/internal/db"
	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/models"
	"github.com/m-troja/taskstorm/internal/notify"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxTitleLen       = 255
	maxDescriptionLen = 1000
)

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// CreateRequest carries the fields of an issue creation call.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	AuthorID    int    `json:"authorId"`
	AssigneeID  int    `json:"assigneeId"`
	ProjectID   int    `json:"projectId"`
	TeamID      int    `json:"teamId"`
	DueDate     string `json:"dueDate"` // RFC 3339, optional
}

// Create validates the request, allocates the next key inside the target
// project, and persists the issue and its key in one transaction. The
// per-project sequence is serialized by locking the project row for the
// duration of the transaction; a unique (project_id, key_string) index
// backstops the lock. After commit the creation activity is recorded and
// a best-effort notification goes out.
func Create(ctx context.Context, gdb *gorm.DB, notifier notify.Notifier, req CreateRequest) (dto.Issue, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return dto.Issue{}, taskerr.New(taskerr.IssueCreationError, "title cannot be empty")
	}
	title = truncate(title, maxTitleLen)
	description := truncate(req.Description, maxDescriptionLen)

	var priority *models.IssuePriority
	if req.Priority != "" {
		p, err := models.ParseIssuePriority(req.Priority)
		if err != nil {
			return dto.Issue{}, taskerr.New(taskerr.IssueCreationError, "unknown priority %q", req.Priority)
		}
		priority = &p
	}

	var dueDate *time.Time
	if req.DueDate != "" {
		t, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			return dto.Issue{}, taskerr.New(taskerr.IssueCreationError, "invalid due date %q", req.DueDate)
		}
		dueDate = &t
	}

	// Fallback rows must exist before they can absorb unresolvable refs.
	if err := db.EnsureSystemRows(gdb); err != nil {
		return dto.Issue{}, err
	}

	authorID := resolveAuthor(gdb, req.AuthorID)

	var assigneeID *int
	if req.AssigneeID != 0 {
		var count int64
		if err := gdb.Model(&models.User{}).Where("id = ?", req.AssigneeID).
			Count(&count).Error; err != nil {
			return dto.Issue{}, fmt.Errorf("issue: check assignee: %w", err)
		}
		if count == 0 {
			return dto.Issue{}, taskerr.New(taskerr.UserNotFound, "assignee %d was not found", req.AssigneeID)
		}
		assigneeID = &req.AssigneeID
	}

	var teamID *int
	if req.TeamID != 0 {
		var count int64
		if err := gdb.Model(&models.Team{}).Where("id = ?", req.TeamID).
			Count(&count).Error; err != nil {
			return dto.Issue{}, fmt.Errorf("issue: check team: %w", err)
		}
		if count == 0 {
			return dto.Issue{}, taskerr.New(taskerr.TeamNotFound, "team %d was not found", req.TeamID)
		}
		teamID = &req.TeamID
	}

	is := models.Issue{
		Title:       title,
		Description: description,
		Status:      models.StatusNew,
		Priority:    priority,
		AuthorID:    authorID,
		AssigneeID:  assigneeID,
		TeamID:      teamID,
		DueDate:     dueDate,
	}

	err := gdb.Transaction(func(tx *gorm.DB) error {
		// Lock the project row so concurrent creations in the same
		// project serialize on the sequence number.
		var p models.Project
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "id = ?", req.ProjectID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unresolvable project: the issue lands in the dummy project.
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&p, "id = ?", models.DummyProjectID).Error; err != nil {
				return fmt.Errorf("issue: load dummy project: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("issue: load project %d: %w", req.ProjectID, err)
		}

		var maxSeq int64
		if err := tx.Model(&models.Issue{}).Where("project_id = ?", p.ID).
			Select("COALESCE(MAX(id_inside_project), 0)").Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("issue: next sequence for project %d: %w", p.ID, err)
		}

		is.IDInsideProject = int(maxSeq) + 1
		is.ProjectID = &p.ID
		if err := tx.Create(&is).Error; err != nil {
			return fmt.Errorf("issue: create in project %s: %w", p.ShortName, err)
		}

		key := models.IssueKey{
			KeyString: models.FormatKey(p.ShortName, is.IDInsideProject),
			ProjectID: p.ID,
			IssueID:   is.ID,
		}
		if err := tx.Create(&key).Error; err != nil {
			return fmt.Errorf("issue: create key %s: %w", key.KeyString, err)
		}
		return nil
	})
	if err != nil {
		return dto.Issue{}, err
	}

	if _, err := activity.RecordCreated(gdb, models.ActivityCreatedIssue, is.ID, authorID); err != nil {
		log.Printf("issue: record creation activity: %v", err)
	}

	full, err := GetByID(gdb, is.ID)
	if err != nil {
		return dto.Issue{}, err
	}
	if notifier != nil {
		notifier.Event(ctx, notify.EventIssueCreated, dto.FromIssueSlack(full))
	}
	log.Printf("issue: created %s (id %d)", full.Key.KeyString, full.ID)
	return dto.FromIssue(full), nil
}

// resolveAuthor maps an unresolvable author to the system user.
func resolveAuthor(gdb *gorm.DB, authorID int) int {
	if authorID == 0 {
		return models.SystemUserID
	}
	var count int64
	if err := gdb.Model(&models.User{}).Where("id = ?", authorID).Count(&count).Error; err != nil || count == 0 {
		return models.SystemUserID
	}
	return authorID
}

// GetByID fetches an issue with its key, relations, and comments loaded.
func GetByID(gdb *gorm.DB, id int) (*models.Issue, error) {
	var is models.Issue
	err := gdb.Preload("Key").Preload("Author").Preload("Assignee").
		Preload("Project").Preload("Team").
		Preload("Comments").Preload("Comments.Author").Preload("Comments.Attachments").
		First(&is, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerr.New(taskerr.IssueNotFound, "issue %d was not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("issue: get %d: %w", id, err)
	}
	return &is, nil
}

// GetDTOByID fetches an issue in its wire shape.
func GetDTOByID(gdb *gorm.DB, id int) (dto.Issue, error) {
	is, err := GetByID(gdb, id)
	if err != nil {
		return dto.Issue{}, err
	}
	return dto.FromIssue(is), nil
}

// GetIDFromKey resolves a key string like "ENG-42" to the issue id.
func GetIDFromKey(gdb *gorm.DB, key string) (int, error) {
	shortName, seq, err := models.SplitKey(key)
	if err != nil {
		return 0, taskerr.New(taskerr.BadRequest, "invalid issue key %q", key)
	}

	var p models.Project
	err = gdb.First(&p, "short_name = ?", strings.ToUpper(shortName)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, taskerr.New(taskerr.IssueNotFound, "issue %s was not found", key)
	}
	if err != nil {
		return 0, fmt.Errorf("issue: resolve key %s: %w", key, err)
	}

	var is models.Issue
	err = gdb.First(&is, "project_id = ? AND id_inside_project = ?", p.ID, seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, taskerr.New(taskerr.IssueNotFound, "issue %s was not found", key)
	}
	if err != nil {
		return 0, fmt.Errorf("issue: resolve key %s: %w", key, err)
	}
	return is.ID, nil
}

// GetByKey fetches an issue by its key string.
func GetByKey(gdb *gorm.DB, key string) (*models.Issue, error) {
	id, err := GetIDFromKey(gdb, key)
	if err != nil {
		return nil, err
	}
	return GetByID(gdb, id)
}

// GetAll returns every issue with keys and comments loaded.
func GetAll(gdb *gorm.DB) ([]models.Issue, error) {
	var issues []models.Issue
	err := gdb.Preload("Key").Preload("Comments").Preload("Comments.Author").
		Find(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("issue: get all: %w", err)
	}
	return issues, nil
}

// GetAllByUserID returns issues the user authored or is assigned to.
func GetAllByUserID(gdb *gorm.DB, userID int) ([]models.Issue, error) {
	var issues []models.Issue
	err := gdb.Preload("Key").Preload("Comments").Preload("Comments.Author").
		Where("author_id = ? OR assignee_id = ?", userID, userID).
		Find(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("issue: get by user %d: %w", userID, err)
	}
	return issues, nil
}

// GetAllByProjectID returns a project's issues.
func GetAllByProjectID(gdb *gorm.DB, projectID int) ([]models.Issue, error) {
	var issues []models.Issue
	err := gdb.Preload("Key").Preload("Comments").Preload("Comments.Author").
		Where("project_id = ?", projectID).Find(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("issue: get by project %d: %w", projectID, err)
	}
	return issues, nil
}

// GetAllByTeamID returns a team's issues.
func GetAllByTeamID(gdb *gorm.DB, teamID int) ([]models.Issue, error) {
	var issues []models.Issue
	err := gdb.Preload("Key").Preload("Comments").Preload("Comments.Author").
		Where("team_id = ?", teamID).Find(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("issue: get by team %d: %w", teamID, err)
	}
	return issues, nil
}

// DeleteByID removes an issue with its key, comments, attachments, and
// activities, then sends a best-effort deletion notice.
func DeleteByID(ctx context.Context, gdb *gorm.DB, notifier notify.Notifier, id int) error {
	is, err := GetByID(gdb, id)
	if err != nil {
		return err
	}
	slackShape := dto.FromIssueSlack(is)

	err = gdb.Transaction(func(tx *gorm.DB) error {
		return deleteIssueRows(tx, id)
	})
	if err != nil {
		return fmt.Errorf("issue: delete %d: %w", id, err)
	}

	if notifier != nil {
		notifier.Event(ctx, notify.EventIssueDeleted, slackShape)
	}
	log.Printf("issue: deleted %d", id)
	return nil
}

// DeleteAll removes every issue and its dependent rows.
func DeleteAll(gdb *gorm.DB) error {
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var ids []int
		if err := tx.Model(&models.Issue{}).Pluck("id", &ids).Error; err != nil {
			return err
		}
		for _, id := range ids {
			if err := deleteIssueRows(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("issue: delete all: %w", err)
	}
	return nil
}

func deleteIssueRows(tx *gorm.DB, id int) error {
	var commentIDs []int
	if err := tx.Model(&models.Comment{}).Where("issue_id = ?", id).
		Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("comment_id IN ?", commentIDs).
			Delete(&models.CommentAttachment{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("issue_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("issue_id = ?", id).Delete(&models.Activity{}).Error; err != nil {
		return err
	}
	if err := tx.Where("issue_id = ?", id).Delete(&models.IssueKey{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Issue{}, "id = ?", id).Error
}
