package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

const (
	defaultBaseURL  = "https://app.asana.com/api/1.0"
	defaultPageSize = 100

	// taskOptFields selects everything reconciliation needs in a single
	// request per page.
	taskOptFields = "name,notes,completed,completed_at,assignee.name,due_on,permalink_url,parent,num_subtasks"
)

// Client is a typed client for the subset of the Asana REST API the sync
// engine consumes.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPageSize overrides the page size used for list calls.
func WithPageSize(n int) Option {
	return func(c *Client) { c.pageSize = n }
}

// NewClient creates a client authenticated with a personal access token.
func NewClient(token string, opts ...Option) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	c := &Client{
		httpClient: oauth2.NewClient(context.Background(), src),
		baseURL:    defaultBaseURL,
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the Asana API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asana: %d %s", e.StatusCode, e.Message)
}

// errorEnvelope matches Asana's error body: {"errors":[{"message": "..."}]}.
type errorEnvelope struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// pageEnvelope matches Asana's list body. NextPage is null on the last page.
type pageEnvelope struct {
	Data     json.RawMessage `json:"data"`
	NextPage *struct {
		Offset string `json:"offset"`
	} `json:"next_page"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		var envelope errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && len(envelope.Errors) > 0 {
			apiErr.Message = envelope.Errors[0].Message
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// list walks Asana's offset pagination, decoding each page's data array
// into items and appending via collect.
func (c *Client) list(ctx context.Context, path string, query url.Values, collect func(json.RawMessage) error) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("limit", fmt.Sprint(c.pageSize))

	offset := ""
	for {
		if offset != "" {
			query.Set("offset", offset)
		}

		var page pageEnvelope
		if err := c.get(ctx, path, query, &page); err != nil {
			return err
		}
		if err := collect(page.Data); err != nil {
			return fmt.Errorf("failed to decode page from %s: %w", path, err)
		}

		if page.NextPage == nil || page.NextPage.Offset == "" {
			return nil
		}
		offset = page.NextPage.Offset
	}
}

// ListSections returns a project's sections in board order.
func (c *Client) ListSections(ctx context.Context, projectGID string) ([]Section, error) {
	var sections []Section
	err := c.list(ctx, "/projects/"+projectGID+"/sections", nil, func(data json.RawMessage) error {
		var page []Section
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		sections = append(sections, page...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list sections for project %s: %w", projectGID, err)
	}
	return sections, nil
}

func (c *Client) listTasks(ctx context.Context, path string) ([]Task, error) {
	query := url.Values{"opt_fields": []string{taskOptFields}}
	var tasks []Task
	err := c.list(ctx, path, query, func(data json.RawMessage) error {
		var page []Task
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		tasks = append(tasks, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListSectionTasks returns the top-level tasks of a section in board order.
func (c *Client) ListSectionTasks(ctx context.Context, sectionGID string) ([]Task, error) {
	tasks, err := c.listTasks(ctx, "/sections/"+sectionGID+"/tasks")
	if err != nil {
		return nil, fmt.Errorf("unable to list tasks for section %s: %w", sectionGID, err)
	}
	return tasks, nil
}

// ListSubtasks returns a task's subtasks in order.
func (c *Client) ListSubtasks(ctx context.Context, taskGID string) ([]Task, error) {
	tasks, err := c.listTasks(ctx, "/tasks/"+taskGID+"/subtasks")
	if err != nil {
		return nil, fmt.Errorf("unable to list subtasks for task %s: %w", taskGID, err)
	}
	return tasks, nil
}

// GetUser fetches a single user record.
func (c *Client) GetUser(ctx context.Context, userGID string) (*User, error) {
	var envelope struct {
		Data User `json:"data"`
	}
	if err := c.get(ctx, "/users/"+userGID, nil, &envelope); err != nil {
		return nil, fmt.Errorf("unable to fetch user %s: %w", userGID, err)
	}
	return &envelope.Data, nil
}

// GetUserEmail resolves an external user id to an email address. A user
// whose email is not visible to the token resolves to an error.
func (c *Client) GetUserEmail(ctx context.Context, userGID string) (string, error) {
	user, err := c.GetUser(ctx, userGID)
	if err != nil {
		return "", err
	}
	if user.Email == "" {
		return "", fmt.Errorf("user %s has no visible email", userGID)
	}
	return user.Email, nil
}
