package issue

import (
	"context"

	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/notify"
	"github.com/m-troja/taskstorm/internal/user"
	"gorm.io/gorm"
)

// SlackCreateRequest carries an issue creation initiated from chat, with
// the author identified by their Slack id.
type SlackCreateRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	AuthorSlackID string `json:"authorSlackId"`
	ProjectID     int    `json:"projectId"`
}

// CreateBySlack creates an issue on behalf of a chat user. Unknown Slack
// ids trigger a directory sync and, failing that, fall back to the bot
// identity, so chat-originated issues always have an author.
func CreateBySlack(ctx context.Context, gdb *gorm.DB, notifier notify.Notifier, dir user.SlackDirectory, req SlackCreateRequest) (dto.Issue, error) {
	authorID, err := user.GetIDBySlackUserID(ctx, gdb, dir, req.AuthorSlackID)
	if err != nil {
		return dto.Issue{}, err
	}
	return Create(ctx, gdb, notifier, CreateRequest{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AuthorID:    authorID,
		ProjectID:   req.ProjectID,
	})
}

// AssignBySlack assigns an issue (by key) to the user behind a Slack id.
func AssignBySlack(ctx context.Context, gdb *gorm.DB, notifier notify.Notifier, dir user.SlackDirectory, key, assigneeSlackID string) (dto.Issue, error) {
	id, err := GetIDFromKey(gdb, key)
	if err != nil {
		return dto.Issue{}, err
	}
	assigneeID, err := user.GetIDBySlackUserID(ctx, gdb, dir, assigneeSlackID)
	if err != nil {
		return dto.Issue{}, err
	}
	return Assign(ctx, gdb, notifier, id, assigneeID)
}
