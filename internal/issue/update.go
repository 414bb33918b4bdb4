package issue

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/m-troja/taskstorm/internal/activity"
	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/models"
	"github.com/m-troja/taskstorm/internal/notify"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"gorm.io/gorm"
)

// Rename replaces an issue's title.
func Rename(gdb *gorm.DB, id int, title string) (dto.Issue, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return dto.Issue{}, taskerr.New(taskerr.BadRequest, "title cannot be empty")
	}
	title = truncate(title, maxTitleLen)

	is, err := GetByID(gdb, id)
	if err != nil {
		return dto.Issue{}, err
	}
	if err := gdb.Model(is).Update("title", title).Error; err != nil {
		return dto.Issue{}, fmt.Errorf("issue: rename %d: %w", id, err)
	}
	return GetDTOByID(gdb, id)
}

// ChangeStatus sets a new workflow status, recording the transition.
func ChangeStatus(ctx context.Context, gdb *gorm.DB, notifier notify.Notifier, id int, status string) (dto.Issue, error) {
	st, err := models.ParseIssueStatus(status)
	if err != nil {
		return dto.Issue{}, taskerr.New(taskerr.BadRequest, "unknown status %q", status)
	}

	is, err := GetByID(gdb, id)
	if err != nil {
		return dto.Issue{}, err
	}
	old := is.Status
	if err := gdb.Model(is).Update("status", st).Error; err != nil {
		return dto.Issue{}, fmt.Errorf("issue: change status of %d: %w", id, err)
	}

	recordUpdate(gdb, models.ActivityUpdatedStatus, id, string(old), string(st))
	return finishUpdate(ctx, gdb, notifier, id, notify.EventUpdateStatus)
}

// ChangePriority sets a new priority, recording the transition. An unset
// priority reads as NORMAL in the activity record.
func ChangePriority(ctx context.Context, gdb *gorm.DB, notifier notify.Notifier, id int, priority string) (dto.Issue, error) {
	p, err := models.ParseIssuePriority(priority)
	if err != nil {
		return dto.Issue{}, taskerr.New(taskerr.BadRequest, "unknown priority %q", priority)
	}

	is, err := GetByID(gdb, id)
	if err != nil {
		return dto.Issue{}, err
	}
	old := models.PriorityNormal
	if is.Priority != nil {
		old = *is.Priority
	}
	if err := gdb.Model(is).Update("priority", p).Error; err != nil {
		return dto.Issue{}, fmt.Errorf("issue: change priority of %d: %w", id, err)
	}

	recordUpdate(gdb, models.ActivityUpdatedPriority, id, string(old), string(p))
	return finishUpdate(ctx, gdb, notifier, id, notify.EventUpdatePriority)
}

// Assign sets the assignee. The previous assignee is recorded in the
// activity; when there was none, the system user stands in.
func Assign(ctx context.Context, gdb *gorm.DB, notifier notify.Notifier, id, assigneeID int) (dto.Issue, error) {
	var count int64
	if err := gdb.Model(&models.User{}).Where("id = ?", assigneeID).Count(&count).Error; err != nil {
		return dto.Issue{}, fmt.Errorf("issue: check assignee: %w", err)
	}
	if count == 0 {
		return dto.Issue{}, taskerr.New(taskerr.UserNotFound, "assignee %d was not found", assigneeID)
	}

	is, err := GetByID(gdb, id)
	if err != nil {
		return dto.Issue{}, err
	}
	oldAssignee := models.SystemUserID
	if is.AssigneeID != nil {
		oldAssignee = *is.AssigneeID
	}
	if err := gdb.Model(is).Update("assignee_id", assigneeID).Error; err != nil {
		return dto.Issue{}, fmt.Errorf("issue: assign %d: %w", id, err)
	}

	recordUpdate(gdb, models.ActivityUpdatedAssignee, id,
		strconv.Itoa(oldAssignee), strconv.Itoa(assigneeID))
	return finishUpdate(ctx, gdb, notifier, id, notify.EventIssueAssigned)
}

// AssignTeam routes the issue to a team.
func AssignTeam(gdb *gorm.DB, id, teamID int) (dto.Issue, error) {
	var count int64
	if err := gdb.Model(&models.Team{}).Where("id = ?", teamID).Count(&count).Error; err != nil {
		return dto.Issue{}, fmt.Errorf("issue: check team: %w", err)
	}
	if count == 0 {
		return dto.Issue{}, taskerr.New(taskerr.TeamNotFound, "team %d was not found", teamID)
	}

	is, err := GetByID(gdb, id)
	if err != nil {
		return dto.Issue{}, err
	}
	if err := gdb.Model(is).Update("team_id", teamID).Error; err != nil {
		return dto.Issue{}, fmt.Errorf("issue: assign team on %d: %w", id, err)
	}
	return GetDTOByID(gdb, id)
}

// UpdateDueDate sets or clears the due date. An empty string clears it.
func UpdateDueDate(ctx context.Context, gdb *gorm.DB, notifier notify.Notifier, id int, dueDate string) (dto.Issue, error) {
	var due *time.Time
	if dueDate != "" {
		t, err := time.Parse(time.RFC3339, dueDate)
		if err != nil {
			return dto.Issue{}, taskerr.New(taskerr.BadRequest, "invalid due date %q", dueDate)
		}
		due = &t
	}

	is, err := GetByID(gdb, id)
	if err != nil {
		return dto.Issue{}, err
	}
	if err := gdb.Model(is).Update("due_date", due).Error; err != nil {
		return dto.Issue{}, fmt.Errorf("issue: update due date of %d: %w", id, err)
	}
	return finishUpdate(ctx, gdb, notifier, id, notify.EventUpdateDueDate)
}

func recordUpdate(gdb *gorm.DB, typ models.ActivityType, issueID int, oldValue, newValue string) {
	if _, err := activity.RecordUpdated(gdb, typ, issueID, oldValue, newValue); err != nil {
		log.Printf("issue: record %s activity: %v", typ, err)
	}
}

func finishUpdate(ctx context.Context, gdb *gorm.DB, notifier notify.Notifier, id int, event string) (dto.Issue, error) {
	is, err := GetByID(gdb, id)
	if err != nil {
		return dto.Issue{}, err
	}
	if notifier != nil {
		notifier.Event(ctx, event, dto.FromIssueSlack(is))
	}
	return dto.FromIssue(is), nil
}
