// Package session owns the authenticated identity of the client and mirrors it
// to durable storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskctl/internal/config"
	"taskctl/internal/service"
	"taskctl/internal/storage"
)

// State is the authentication state of a Manager.
type State int

const (
	Initializing State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrAlreadyAuthenticated is returned by Login while a session is active.
	ErrAlreadyAuthenticated = errors.New("already logged in (run: taskctl logout)")

	// ErrNotRestored is returned by Login before Restore has run.
	ErrNotRestored = errors.New("session not restored")

	// ErrIncompleteSession is returned when the server answers login without
	// a token, username or user id.
	ErrIncompleteSession = errors.New("login response is missing session fields")
)

// Session is the identity held while Authenticated.
type Session struct {
	Token    string
	Username string
	UserID   string
}

func (s Session) values() map[string]string {
	return map[string]string{
		storage.KeyToken:    s.Token,
		storage.KeyUsername: s.Username,
		storage.KeyUserID:   s.UserID,
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithAutoLogout makes HandleAuthFailure end the session on a 401.
func WithAutoLogout(enabled bool) Option {
	return func(m *Manager) { m.autoLogout = enabled }
}

// Manager is the single writer of the session record in storage.
// All methods are safe for concurrent use.
type Manager struct {
	store      storage.Store
	auth       service.Authenticator
	log        *log.Logger
	autoLogout bool

	mu      sync.Mutex
	state   State
	current Session
	err     error
}

// NewManager creates a Manager in the Initializing state.
func NewManager(store storage.Store, auth service.Authenticator, logger *log.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = config.DiscardLogger()
	}
	m := &Manager{
		store: store,
		auth:  auth,
		log:   logger,
		state: Initializing,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore loads the session record from storage. A complete record yields
// Authenticated; anything else yields Anonymous and a partial record is
// cleared. Only the first call has any effect.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Initializing {
		return nil
	}

	values := make(map[string]string, len(storage.SessionKeys))
	for _, key := range storage.SessionKeys {
		v, ok, err := m.store.Get(ctx, key)
		if err != nil {
			m.state = Anonymous
			m.err = fmt.Errorf("restore session: %w", err)
			return m.err
		}
		if ok && v != "" {
			values[key] = v
		}
	}

	if len(values) == len(storage.SessionKeys) {
		m.state = Authenticated
		m.current = Session{
			Token:    values[storage.KeyToken],
			Username: values[storage.KeyUsername],
			UserID:   values[storage.KeyUserID],
		}
		m.log.WithField("username", m.current.Username).Debug("session restored")
		return nil
	}

	m.state = Anonymous
	if len(values) > 0 {
		m.log.WithField("keys", len(values)).Warn("clearing incomplete session record")
		m.removeAllLocked(ctx)
	}
	return nil
}

// Loading reports whether Restore has not yet run.
func (m *Manager) Loading() bool {
	return m.State() == Initializing
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the active session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.state == Authenticated
}

// Login authenticates with the server and persists the session.
// On any failure the state is unchanged and the error is also kept in the
// message slot.
func (m *Manager) Login(ctx context.Context, creds service.Credentials) (Session, error) {
	if err := validateCredentials(creds); err != nil {
		return Session{}, m.fail(err)
	}

	m.mu.Lock()
	switch m.state {
	case Initializing:
		m.mu.Unlock()
		return Session{}, m.fail(ErrNotRestored)
	case Authenticated:
		m.mu.Unlock()
		return Session{}, m.fail(ErrAlreadyAuthenticated)
	}
	m.mu.Unlock()

	info, err := m.auth.Login(ctx, creds)
	if err != nil {
		return Session{}, m.fail(err)
	}
	if !info.Complete() {
		return Session{}, m.fail(ErrIncompleteSession)
	}
	sess := Session{Token: info.Token, Username: info.Username, UserID: info.UserID}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Authenticated {
		m.err = ErrAlreadyAuthenticated
		return Session{}, m.err
	}
	if err := m.persistLocked(ctx, sess); err != nil {
		m.err = fmt.Errorf("save session: %w", err)
		return Session{}, m.err
	}
	m.state = Authenticated
	m.current = sess
	m.err = nil
	m.log.WithField("username", sess.Username).Debug("logged in")
	return sess, nil
}

// persistLocked writes every session key. If a write fails, the keys are
// removed again so storage never holds a partial record.
func (m *Manager) persistLocked(ctx context.Context, sess Session) error {
	values := sess.values()
	for _, key := range storage.SessionKeys {
		if err := m.store.Set(ctx, key, values[key]); err != nil {
			m.removeAllLocked(ctx)
			return err
		}
	}
	return nil
}

// Register creates an account. It does not log in.
func (m *Manager) Register(ctx context.Context, creds service.Credentials) (service.SessionInfo, error) {
	if err := validateCredentials(creds); err != nil {
		return service.SessionInfo{}, m.fail(err)
	}
	info, err := m.auth.Register(ctx, creds)
	if err != nil {
		return service.SessionInfo{}, m.fail(err)
	}
	return info, nil
}

// Logout removes the session record and moves to Anonymous. It makes no
// network call and cannot fail; removal errors are logged. It reports
// whether a session was active.
func (m *Manager) Logout(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	wasActive := m.state == Authenticated
	m.removeAllLocked(ctx)
	m.state = Anonymous
	m.current = Session{}
	if wasActive {
		m.log.Debug("logged out")
	}
	return wasActive
}

func (m *Manager) removeAllLocked(ctx context.Context) {
	for _, key := range storage.SessionKeys {
		if err := m.store.Remove(ctx, key); err != nil {
			m.log.WithError(err).WithField("key", key).Warn("failed to remove session key")
		}
	}
}

// HandleAuthFailure logs out when err is a 401 and auto logout is enabled.
// It reports whether a logout happened.
func (m *Manager) HandleAuthFailure(ctx context.Context, err error) bool {
	if !m.autoLogout || !service.IsAuthFailure(err) {
		return false
	}
	m.log.Warn("server rejected the session token; logging out")
	return m.Logout(ctx)
}

// Err returns the latest recorded error.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// ClearError empties the message slot.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = nil
}

func (m *Manager) fail(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return err
}

func validateCredentials(creds service.Credentials) error {
	if strings.TrimSpace(creds.Username) == "" {
		return &service.ValidationError{Field: "username", Message: "is required"}
	}
	if creds.Password == "" {
		return &service.ValidationError{Field: "password", Message: "is required"}
	}
	return nil
}
