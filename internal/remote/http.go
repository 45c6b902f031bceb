package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 4 << 20 // 4MB
	todosPath      = "/todos"
)

// HTTPClient talks to the remote store over its REST API
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

type createRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Done        bool      `json:"done"`
	Date        time.Time `json:"date"`
}

// NewHTTPClient creates a client for the store rooted at baseURL.
// timeout bounds every request; zero selects the default.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// List fetches the tasks matching filter
func (c *HTTPClient) List(ctx context.Context, filter Filter) ([]task.Task, error) {
	var tasks []task.Task
	if _, err := c.do(ctx, "list", http.MethodGet, todosPath, filter.Query(), nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// Create stores t; the store assigns the id
func (c *HTTPClient) Create(ctx context.Context, t task.Task) (task.Task, error) {
	body := createRequest{
		Name:        t.Name,
		Description: t.Description,
		Done:        t.Done,
		Date:        t.CreatedAt,
	}

	var created task.Task
	if _, err := c.do(ctx, "create", http.MethodPost, todosPath, nil, body, &created); err != nil {
		return task.Task{}, err
	}
	if created.ID == "" {
		return task.Task{}, fmt.Errorf("create: %w: response carried no id", ErrRemoteRejected)
	}
	return created, nil
}

// Update sends a partial update for id
func (c *HTTPClient) Update(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	var updated task.Task
	if _, err := c.do(ctx, "update", http.MethodPatch, taskPath(id), nil, patch, &updated); err != nil {
		return task.Task{}, err
	}
	if updated.ID == "" {
		return task.Task{}, fmt.Errorf("update %s: %w: response carried no task", id, ErrRemoteRejected)
	}
	if updated.ID != id {
		return task.Task{}, fmt.Errorf("update %s: %w: response was for %s", id, ErrRemoteRejected, updated.ID)
	}
	return updated, nil
}

// Delete removes id. A 404 is reported as false rather than an error.
func (c *HTTPClient) Delete(ctx context.Context, id string) (bool, error) {
	status, err := c.do(ctx, "delete", http.MethodDelete, taskPath(id), nil, nil, nil)
	if status == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func taskPath(id string) string {
	return todosPath + "/" + url.PathEscape(id)
}

// do performs one request and decodes a JSON response into out.
// It returns the response status when one was received.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, in, out any) (int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%s: %w: failed to read response body: %v", op, ErrRemoteUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &StatusError{Op: op, Status: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: %w: failed to decode response: %v", op, ErrRemoteRejected, err)
		}
	}

	return resp.StatusCode, nil
}
