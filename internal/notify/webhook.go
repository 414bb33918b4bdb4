package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"github.com/m-troja/taskstorm/internal/user"
)

const requestTimeout = 5 * time.Second

// Webhook posts issue events to the chat bridge's event endpoint.
type Webhook struct {
	baseURL string
	client  *http.Client
}

// WebhookOpts holds parameters for creating a Webhook.
type WebhookOpts struct {
	BaseURL string // e.g. "http://localhost:6969"
	Client  *http.Client
}

// NewWebhook creates a Webhook notifier.
func NewWebhook(opts WebhookOpts) (*Webhook, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("notify: webhook: base url is required")
	}
	c := opts.Client
	if c == nil {
		c = &http.Client{Timeout: requestTimeout}
	}
	return &Webhook{baseURL: opts.BaseURL, client: c}, nil
}

type eventPayload struct {
	Event string         `json:"event"`
	Issue dto.SlackIssue `json:"issue"`
}

// Event posts {event, issue} to the bridge. Failures are logged and
// swallowed so callers never fail on notification problems; no retry.
func (w *Webhook) Event(ctx context.Context, event string, issue dto.SlackIssue) error {
	body, err := json.Marshal(eventPayload{Event: event, Issue: issue})
	if err != nil {
		log.Printf("notify: encode %s for issue %s: %v", event, issue.Key, err)
		return nil
	}

	url := w.baseURL + "/api/v1/taskstorm/event"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("notify: build %s request: %v", event, err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		log.Printf("notify: post %s for issue %s: %v", event, issue.Key, err)
		return nil
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		log.Printf("notify: post %s for issue %s: chat bridge returned %d",
			event, issue.Key, resp.StatusCode)
	}
	return nil
}

// DirectoryClient pulls the chat bridge's user directory. It implements
// user.SlackDirectory.
type DirectoryClient struct {
	baseURL string
	client  *http.Client
}

// NewDirectoryClient creates a DirectoryClient against the bridge base URL.
func NewDirectoryClient(baseURL string) (*DirectoryClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("notify: directory client: base url is required")
	}
	return &DirectoryClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}, nil
}

// FetchUsers requests every known chat user from the bridge. Unlike event
// delivery this is a real dependency of its callers, so failures propagate.
func (d *DirectoryClient) FetchUsers(ctx context.Context) ([]user.SlackProfile, error) {
	url := d.baseURL + "/api/v1/users/all"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("notify: build directory request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, taskerr.New(taskerr.ChatError, "chat bridge unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, taskerr.New(taskerr.ChatError, "chat bridge returned %d", resp.StatusCode)
	}

	var profiles []user.SlackProfile
	if err := json.NewDecoder(resp.Body).Decode(&profiles); err != nil {
		return nil, taskerr.New(taskerr.ChatError, "decode chat directory: %v", err)
	}
	return profiles, nil
}
