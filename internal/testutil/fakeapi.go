package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"taskctl/internal/service"
)

// FakeAPIBasePath is the path prefix the fake API serves under.
const FakeAPIBasePath = "/api"

// RecordedRequest is one request seen by FakeAPI.
type RecordedRequest struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	RequestID     string
	ContentType   string
	Body          string
}

type apiUser struct {
	id       string
	password string
}

type injectedResponse struct {
	status int
	body   string
}

// FakeAPI is an in-process task REST API served over httptest.
// Tokens are HS256 JWTs carrying the user id in "sub".
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	secret   []byte
	parser   *jwt.Parser
	users    map[string]apiUser
	tasks    []service.Task
	nextID   int
	requests []RecordedRequest
	failNext []injectedResponse
}

// NewFakeAPI starts a FakeAPI that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		secret: []byte("fake-api-secret"),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
		users:  make(map[string]apiUser),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(f.record)

	api := e.Group(FakeAPIBasePath)
	api.POST("/auth/register", f.handleRegister)
	api.POST("/auth/login", f.handleLogin)

	tasks := api.Group("/tasks", f.requireAuth)
	tasks.GET("", f.handleList)
	tasks.POST("", f.handleCreate)
	tasks.PUT("/:id", f.handleUpdate)
	tasks.PATCH("/:id/toggle", f.handleToggle)
	tasks.DELETE("/:id", f.handleDelete)

	f.Server = httptest.NewServer(e)
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL returns the API root, e.g. http://127.0.0.1:1234/api.
func (f *FakeAPI) BaseURL() string {
	return f.Server.URL + FakeAPIBasePath
}

// AddUser creates an account and returns its user id.
func (f *FakeAPI) AddUser(username, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUserLocked(username, password)
}

func (f *FakeAPI) addUserLocked(username, password string) string {
	id := fmt.Sprintf("u%d", len(f.users)+1)
	f.users[username] = apiUser{id: id, password: password}
	return id
}

// IssueToken signs a token for userID that expires after ttl.
func (f *FakeAPI) IssueToken(userID, username string, ttl time.Duration) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueLocked(userID, username, ttl)
}

func (f *FakeAPI) issueLocked(userID, username string, ttl time.Duration) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(f.secret)
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	return signed
}

// RotateSecret invalidates every token issued so far.
func (f *FakeAPI) RotateSecret() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secret = append([]byte("rotated-"), f.secret...)
}

// AddTask stores a task owned by userID.
func (f *FakeAPI) AddTask(userID, title string, priority service.Priority, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addTaskLocked(userID, service.TaskInput{Title: title, Priority: priority}, completed)
}

func (f *FakeAPI) addTaskLocked(userID string, in service.TaskInput, completed bool) service.Task {
	f.nextID++
	now := time.Now().UTC()
	if in.Priority == "" {
		in.Priority = service.DefaultPriority
	}
	task := service.Task{
		ID:          fmt.Sprintf("task-%d", f.nextID),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Completed:   completed,
		UserID:      userID,
		CreatedAt:   service.Timestamp{Time: now},
		UpdatedAt:   service.Timestamp{Time: now},
	}
	f.tasks = append(f.tasks, task)
	return task
}

// TasksFor returns the tasks owned by userID.
func (f *FakeAPI) TasksFor(userID string) []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []service.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// FailNext makes the next request answer with status and a raw body.
func (f *FakeAPI) FailNext(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = append(f.failNext, injectedResponse{status: status, body: body})
}

// Requests returns every request seen so far.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// LastRequest returns the most recent request, or the zero value.
func (f *FakeAPI) LastRequest() RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return RecordedRequest{}
	}
	return f.requests[len(f.requests)-1]
}

func (f *FakeAPI) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:        req.Method,
			Path:          req.URL.Path,
			RawQuery:      req.URL.RawQuery,
			Authorization: req.Header.Get(echo.HeaderAuthorization),
			RequestID:     req.Header.Get(echo.HeaderXRequestID),
			ContentType:   req.Header.Get(echo.HeaderContentType),
			Body:          string(body),
		})
		var injected *injectedResponse
		if len(f.failNext) > 0 {
			injected = &f.failNext[0]
			f.failNext = f.failNext[1:]
		}
		f.mu.Unlock()

		if injected != nil {
			return c.String(injected.status, injected.body)
		}
		return next(c)
	}
}

func (f *FakeAPI) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := f.userIDFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, message("Unauthorized"))
		}
		c.Set("userID", userID)
		return next(c)
	}
}

func (f *FakeAPI) userIDFromHeader(h string) (string, error) {
	tokenStr, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || tokenStr == "" {
		return "", errors.New("missing bearer token")
	}
	f.mu.Lock()
	secret := f.secret
	f.mu.Unlock()

	token, err := f.parser.Parse(tokenStr, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

func message(msg string) map[string]string {
	return map[string]string{"message": msg}
}

func (f *FakeAPI) handleRegister(c echo.Context) error {
	var in service.Credentials
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, message("Invalid request body"))
	}
	if in.Username == "" || in.Password == "" {
		return c.JSON(http.StatusBadRequest, message("Username and password are required"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[in.Username]; ok {
		return c.JSON(http.StatusConflict, message("Username already exists"))
	}
	id := f.addUserLocked(in.Username, in.Password)
	return c.JSON(http.StatusCreated, service.SessionInfo{
		Token:    f.issueLocked(id, in.Username, time.Hour),
		Username: in.Username,
		UserID:   id,
		Message:  "User registered successfully",
	})
}

func (f *FakeAPI) handleLogin(c echo.Context) error {
	var in service.Credentials
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, message("Invalid request body"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[in.Username]
	if !ok || u.password != in.Password {
		return c.JSON(http.StatusUnauthorized, message("Invalid username or password"))
	}
	return c.JSON(http.StatusOK, service.SessionInfo{
		Token:    f.issueLocked(u.id, in.Username, time.Hour),
		Username: in.Username,
		UserID:   u.id,
	})
}

func (f *FakeAPI) handleList(c echo.Context) error {
	userID := c.Get("userID").(string)
	status := c.QueryParam("status")
	priority := c.QueryParam("priority")

	f.mu.Lock()
	defer f.mu.Unlock()
	out := []service.Task{}
	for _, t := range f.tasks {
		if t.UserID != userID {
			continue
		}
		if status == string(service.FilterPending) && t.Completed {
			continue
		}
		if status == string(service.FilterCompleted) && !t.Completed {
			continue
		}
		if priority != "" && string(t.Priority) != priority {
			continue
		}
		out = append(out, t)
	}
	return c.JSON(http.StatusOK, out)
}

func (f *FakeAPI) handleCreate(c echo.Context) error {
	var in service.TaskInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, message("Invalid request body"))
	}
	if strings.TrimSpace(in.Title) == "" {
		return c.JSON(http.StatusBadRequest, message("Title is required"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	task := f.addTaskLocked(c.Get("userID").(string), in, false)
	return c.JSON(http.StatusCreated, task)
}

func (f *FakeAPI) handleUpdate(c echo.Context) error {
	var in service.TaskInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, message("Invalid request body"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.ownedLocked(c)
	if i < 0 {
		return c.JSON(http.StatusNotFound, message("Task not found"))
	}
	if in.Priority == "" {
		in.Priority = service.DefaultPriority
	}
	f.tasks[i].Title = in.Title
	f.tasks[i].Description = in.Description
	f.tasks[i].Priority = in.Priority
	f.tasks[i].UpdatedAt = service.Timestamp{Time: time.Now().UTC()}
	return c.JSON(http.StatusOK, f.tasks[i])
}

func (f *FakeAPI) handleToggle(c echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.ownedLocked(c)
	if i < 0 {
		return c.JSON(http.StatusNotFound, message("Task not found"))
	}
	f.tasks[i].Completed = !f.tasks[i].Completed
	f.tasks[i].UpdatedAt = service.Timestamp{Time: time.Now().UTC()}
	return c.JSON(http.StatusOK, f.tasks[i])
}

func (f *FakeAPI) handleDelete(c echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.ownedLocked(c)
	if i < 0 {
		return c.JSON(http.StatusNotFound, message("Task not found"))
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return c.NoContent(http.StatusNoContent)
}

// ownedLocked returns the index of the :id task owned by the caller, or -1.
func (f *FakeAPI) ownedLocked(c echo.Context) int {
	id := c.Param("id")
	userID := c.Get("userID").(string)
	for i, t := range f.tasks {
		if t.ID == id && t.UserID == userID {
			return i
		}
	}
	return -1
}
