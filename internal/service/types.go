// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"fmt"
	"strings"
	"time"
)

// Priority is a task priority level as spelled on the wire.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// DefaultPriority is used when a task is created without one.
const DefaultPriority = PriorityMedium

// ParsePriority parses a priority case-insensitively.
// An empty string yields DefaultPriority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return DefaultPriority, nil
	case string(PriorityLow):
		return PriorityLow, nil
	case string(PriorityMedium):
		return PriorityMedium, nil
	case string(PriorityHigh):
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("invalid priority: %s", s)
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Filter restricts which tasks are listed.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
	FilterLow       Filter = Filter(PriorityLow)
	FilterMedium    Filter = Filter(PriorityMedium)
	FilterHigh      Filter = Filter(PriorityHigh)
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterPending, FilterCompleted, FilterHigh, FilterMedium, FilterLow}

// ParseFilter parses a filter name case-insensitively.
// An empty string yields FilterAll.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", string(FilterAll):
		return FilterAll, nil
	case string(FilterPending):
		return FilterPending, nil
	case string(FilterCompleted):
		return FilterCompleted, nil
	}
	if p, err := ParsePriority(s); err == nil {
		return Filter(p), nil
	}
	return "", fmt.Errorf("invalid filter: %s", s)
}

// Query returns the list query parameter for the filter.
// ok is false for FilterAll.
func (f Filter) Query() (key, value string, ok bool) {
	switch f {
	case FilterPending, FilterCompleted:
		return "status", string(f), true
	case FilterLow, FilterMedium, FilterHigh:
		return "priority", string(f), true
	}
	return "", "", false
}

// Task represents a single task item as owned by the server.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	UserID      string    `json:"userId,omitempty"`
	CreatedAt   Timestamp `json:"createdAt,omitempty"`
	UpdatedAt   Timestamp `json:"updatedAt,omitempty"`
}

// TaskInput is the body of create and update requests.
type TaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// Credentials are sent to the register and login routes.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// SessionInfo is returned by the register and login routes.
type SessionInfo struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Message  string `json:"message,omitempty"`
}

// Complete reports whether all session fields are present.
func (s SessionInfo) Complete() bool {
	return s.Token != "" && s.Username != "" && s.UserID != ""
}

// Timestamp is a server time that tolerates zone-less ISO-8601 values.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON decodes a quoted timestamp. Unknown shapes decode to the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

// MarshalJSON encodes the time as RFC 3339, or null when zero.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}
