// Package restapi implements the service.Service interface against the task REST API.
package restapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"

	"taskctl/internal/config"
	"taskctl/internal/service"
	"taskctl/internal/storage"
)

const (
	// RequestIDHeader carries a per-request uuid for server-side correlation.
	RequestIDHeader = "X-Request-ID"

	// maxMessageLen bounds error messages lifted from plain-text bodies.
	maxMessageLen = 200
)

// Client implements service.Service over HTTP.
// It keeps no task state; every call goes to the server.
type Client struct {
	baseURL string
	anon    *http.Client // auth routes, no bearer
	authed  *http.Client // task routes, bearer from storage
	log     *log.Logger
}

var _ service.Service = (*Client)(nil)

// New creates a client for cfg.BaseURL whose task calls authenticate with the
// token currently held in store.
func New(cfg *config.Config, store storage.Store, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url: %q", cfg.BaseURL)
	}
	return NewWithHTTPClient(cfg.BaseURL, &http.Client{}, store, logger), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// The client's transport is wrapped to add the bearer token on task routes.
func NewWithHTTPClient(baseURL string, httpClient *http.Client, store storage.Store, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = config.DiscardLogger()
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	authed := &http.Client{
		Transport:     &sessionTransport{store: store, base: base},
		CheckRedirect: httpClient.CheckRedirect,
		Jar:           httpClient.Jar,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anon:    httpClient,
		authed:  authed,
		log:     logger,
	}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, creds service.Credentials) (service.SessionInfo, error) {
	var info service.SessionInfo
	err := c.do(ctx, c.anon, "register", http.MethodPost, "/auth/register", nil, creds, &info)
	return info, err
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (service.SessionInfo, error) {
	var info service.SessionInfo
	err := c.do(ctx, c.anon, "login", http.MethodPost, "/auth/login", nil, creds, &info)
	return info, err
}

// ListTasks returns tasks under filter.
func (c *Client) ListTasks(ctx context.Context, filter service.Filter) ([]service.Task, error) {
	var query url.Values
	if key, value, ok := filter.Query(); ok {
		query = url.Values{key: []string{value}}
	}
	var tasks []service.Task
	if err := c.do(ctx, c.authed, "list tasks", http.MethodGet, "/tasks", query, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// CreateTask creates a new task.
func (c *Client) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	if in.Priority == "" {
		in.Priority = service.DefaultPriority
	}
	var task service.Task
	err := c.do(ctx, c.authed, "create task", http.MethodPost, "/tasks", nil, in, &task)
	return task, err
}

// UpdateTask replaces title, description and priority of a task.
func (c *Client) UpdateTask(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	path, err := taskPath(id, "")
	if err != nil {
		return service.Task{}, err
	}
	if in.Priority == "" {
		in.Priority = service.DefaultPriority
	}
	var task service.Task
	err = c.do(ctx, c.authed, "update task", http.MethodPut, path, nil, in, &task)
	return task, err
}

// ToggleTask flips the completed flag of a task.
func (c *Client) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	path, err := taskPath(id, "/toggle")
	if err != nil {
		return service.Task{}, err
	}
	var task service.Task
	err = c.do(ctx, c.authed, "toggle task", http.MethodPatch, path, nil, nil, &task)
	return task, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	path, err := taskPath(id, "")
	if err != nil {
		return err
	}
	return c.do(ctx, c.authed, "delete task", http.MethodDelete, path, nil, nil, nil)
}

func taskPath(id, suffix string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", &service.ValidationError{Field: "id", Message: "is required"}
	}
	return "/tasks/" + url.PathEscape(id) + suffix, nil
}

// do sends one request and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, hc *http.Client, op, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := sonic.ConfigStd.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	entry := c.log.WithFields(log.Fields{
		"op":         op,
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		entry.WithError(err).Debug("request failed")
		return wrapError(op, err)
	}
	defer googleapi.CloseBody(resp)
	entry.WithFields(log.Fields{
		"status":  resp.StatusCode,
		"latency": time.Since(start),
	}).Debug("request done")

	if err := googleapi.CheckResponse(resp); err != nil {
		return statusError(op, resp.StatusCode, err)
	}
	if out == nil {
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
		return &service.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// wrapError classifies a transport failure.
func wrapError(op string, err error) error {
	if errors.Is(err, service.ErrNotAuthenticated) {
		return service.ErrNotAuthenticated
	}
	var tre *tokenReadError
	if errors.As(err, &tre) {
		return fmt.Errorf("%s: %w", op, tre)
	}
	return &service.NetworkError{Op: op, Err: err}
}

// statusError converts a googleapi.Error from CheckResponse into an HTTPStatusError.
func statusError(op string, code int, err error) error {
	se := &service.HTTPStatusError{Op: op, Code: code}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		se.Body = gerr.Body
		se.Message = gerr.Message
	}
	if msg := messageFromBody(se.Body); msg != "" {
		se.Message = msg
	}
	return se
}

// messageFromBody extracts a human message from an error body:
// a JSON "message" (or string "error") field, or short plain text.
func messageFromBody(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	if strings.HasPrefix(body, "{") {
		var payload struct {
			Message string `json:"message"`
			Error   any    `json:"error"`
		}
		if err := sonic.ConfigStd.UnmarshalFromString(body, &payload); err != nil {
			return ""
		}
		if payload.Message != "" {
			return payload.Message
		}
		if s, ok := payload.Error.(string); ok {
			return s
		}
		return ""
	}
	if strings.HasPrefix(body, "<") {
		return ""
	}
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[:i]
	}
	if len(body) > maxMessageLen {
		body = body[:maxMessageLen]
	}
	return body
}
