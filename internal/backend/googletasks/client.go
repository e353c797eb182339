// Package googletasks implements mirror.Remote using the Google Tasks API.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"chatdo/internal/config"
	"chatdo/internal/mirror"
)

const (
	// PageSize is the number of items per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	// dueSuffix turns a calendar date into the timestamp form the API expects.
	// The API discards the time portion.
	dueSuffix = "T00:00:00.000Z"
)

// Client implements mirror.Remote using Google Tasks API.
type Client struct {
	svc *tasks.Service
}

// OAuthConfig loads the OAuth client configuration from the config directory.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.OAuthClientFile, err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.OAuthClientFile, err)
	}
	return oauthConfig, nil
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("not logged in (run: chatdo login): %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.TokenFile, err)
	}

	// Token source that auto-refreshes
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))
	return NewWithHTTPClient(ctx, httpClient)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ResolveList implements mirror.Remote.
func (c *Client) ResolveList(ctx context.Context, name string) (mirror.List, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	nameLower := strings.ToLower(name)

	var matches []mirror.List
	err := c.svc.Tasklists.List().MaxResults(PageSize).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, l := range resp.Items {
			if strings.ToLower(strings.TrimSpace(l.Title)) == nameLower {
				matches = append(matches, mirror.List{ID: l.Id, Title: l.Title})
			}
		}
		return nil
	})
	if err != nil {
		return mirror.List{}, wrapError(err)
	}

	switch len(matches) {
	case 0:
		return mirror.List{}, fmt.Errorf("list %s: %w", name, mirror.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return mirror.List{}, fmt.Errorf("ambiguous list name: %s", name)
	}
}

// CreateList implements mirror.Remote.
func (c *Client) CreateList(ctx context.Context, name string) (mirror.List, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	l, err := c.svc.Tasklists.Insert(&tasks.TaskList{Title: name}).Context(ctx).Do()
	if err != nil {
		return mirror.List{}, wrapError(err)
	}
	return mirror.List{ID: l.Id, Title: l.Title}, nil
}

// ListTasks implements mirror.Remote.
func (c *Client) ListTasks(ctx context.Context, listID string) ([]mirror.RemoteTask, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var result []mirror.RemoteTask
	err := c.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				result = append(result, fromAPI(t))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// CreateTask implements mirror.Remote.
func (c *Client) CreateTask(ctx context.Context, listID string, t mirror.RemoteTask) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err := c.svc.Tasks.Insert(listID, toAPI(t)).Context(ctx).Do()
	return wrapError(err)
}

// UpdateTask implements mirror.Remote. The remote task is replaced as a whole.
func (c *Client) UpdateTask(ctx context.Context, listID string, t mirror.RemoteTask) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err := c.svc.Tasks.Update(listID, t.ID, toAPI(t)).Context(ctx).Do()
	return wrapError(err)
}

// DeleteTask implements mirror.Remote.
func (c *Client) DeleteTask(ctx context.Context, listID, taskID string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	return wrapError(c.svc.Tasks.Delete(listID, taskID).Context(ctx).Do())
}

func toAPI(t mirror.RemoteTask) *tasks.Task {
	out := &tasks.Task{
		Id:     t.ID,
		Title:  t.Title,
		Notes:  t.Notes,
		Status: t.Status,
	}
	if t.Due != "" {
		out.Due = t.Due + dueSuffix
	}
	return out
}

func fromAPI(t *tasks.Task) mirror.RemoteTask {
	due := t.Due
	if len(due) >= len("2006-01-02") {
		due = due[:len("2006-01-02")]
	}
	return mirror.RemoteTask{
		ID:     t.Id,
		Title:  t.Title,
		Notes:  t.Notes,
		Status: t.Status,
		Due:    due,
	}
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("token expired or revoked (run: chatdo login)")
		case http.StatusNotFound:
			return mirror.ErrNotFound
		}
	}

	return err
}
