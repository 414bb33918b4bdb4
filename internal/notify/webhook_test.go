package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/taskerr"
)

func TestWebhook_Event(t *testing.T) {
	var got eventPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/taskstorm/event" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh, err := NewWebhook(WebhookOpts{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}

	issue := dto.SlackIssue{ID: 1, Key: "ENG-1", Title: "sample", Status: "NEW", Priority: "NORMAL"}
	if err := wh.Event(context.Background(), EventIssueCreated, issue); err != nil {
		t.Fatalf("event: %v", err)
	}
	if got.Event != EventIssueCreated || got.Issue.Key != "ENG-1" {
		t.Errorf("payload = %+v", got)
	}
}

func TestWebhook_SwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh, err := NewWebhook(WebhookOpts{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}
	if err := wh.Event(context.Background(), EventUpdateStatus, dto.SlackIssue{Key: "ENG-1"}); err != nil {
		t.Errorf("bridge error must not propagate: %v", err)
	}

	// Unreachable bridge is also swallowed.
	srv.Close()
	if err := wh.Event(context.Background(), EventUpdateStatus, dto.SlackIssue{Key: "ENG-1"}); err != nil {
		t.Errorf("connection error must not propagate: %v", err)
	}
}

func TestDirectoryClient_FetchUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/all" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"slackUserId":"U123","slackName":"ada"},{"slackUserId":"U456","slackName":"bob"}]`))
	}))
	defer srv.Close()

	dc, err := NewDirectoryClient(srv.URL)
	if err != nil {
		t.Fatalf("new directory client: %v", err)
	}
	profiles, err := dc.FetchUsers(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(profiles) != 2 || profiles[0].SlackUserID != "U123" || profiles[1].SlackName != "bob" {
		t.Errorf("profiles = %+v", profiles)
	}
}

func TestDirectoryClient_FailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	dc, err := NewDirectoryClient(srv.URL)
	if err != nil {
		t.Fatalf("new directory client: %v", err)
	}
	_, err = dc.FetchUsers(context.Background())
	if got := taskerr.TypeOf(err); got != taskerr.ChatError {
		t.Errorf("error type = %s, want %s", got, taskerr.ChatError)
	}
}
