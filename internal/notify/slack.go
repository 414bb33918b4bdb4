package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/m-troja/taskstorm/internal/dto"
	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts issue events straight to a Slack channel, bypassing the
// chat bridge. Enabled when a bot token is configured.
type Slack struct {
	client    slackClient
	channelID string
}

// SlackOpts holds parameters for creating a Slack notifier.
type SlackOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// NewSlack creates a Slack notifier.
func NewSlack(opts SlackOpts) (*Slack, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("notify: slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: slack: channel id is required")
	}
	s := &Slack{client: opts.Client, channelID: opts.ChannelID}
	if s.client == nil {
		s.client = slackapi.New(opts.BotToken)
	}
	return s, nil
}

// Event posts a formatted message for the issue event. Failures are logged
// and swallowed, same contract as the webhook notifier.
func (s *Slack) Event(ctx context.Context, event string, issue dto.SlackIssue) error {
	attachment := slackapi.Attachment{
		Title: fmt.Sprintf("%s %s", eventHeadline(event), issue.Key),
		Text:  issue.Title,
		Fields: []slackapi.AttachmentField{
			{Title: "Status", Value: issue.Status, Short: true},
			{Title: "Priority", Value: issue.Priority, Short: true},
		},
	}
	if issue.AssigneeSlackID != "" {
		attachment.Fields = append(attachment.Fields, slackapi.AttachmentField{
			Title: "Assignee", Value: fmt.Sprintf("<@%s>", issue.AssigneeSlackID), Short: true,
		})
	}

	_, _, err := s.client.PostMessageContext(ctx, s.channelID,
		slackapi.MsgOptionAttachments(attachment))
	if err != nil {
		log.Printf("notify: slack post %s for issue %s: %v", event, issue.Key, err)
	}
	return nil
}

func eventHeadline(event string) string {
	switch event {
	case EventIssueCreated:
		return "New issue"
	case EventIssueAssigned:
		return "Assigned"
	case EventCommentCreated:
		return "New comment on"
	case EventIssueDeleted:
		return "Deleted"
	default:
		// UPDATE_STATUS -> "Status updated on", etc.
		name := strings.TrimPrefix(event, "UPDATE_")
		name = strings.ToLower(strings.ReplaceAll(name, "_", " "))
		if name == "" {
			return "Updated"
		}
		return strings.ToUpper(name[:1]) + name[1:] + " updated on"
	}
}

// Fanout delivers every event to each of its notifiers.
type Fanout []Notifier

// Event implements Notifier.
func (f Fanout) Event(ctx context.Context, event string, issue dto.SlackIssue) error {
	for _, n := range f {
		n.Event(ctx, event, issue)
	}
	return nil
}
