package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chincoe/chayns-helper-sub000/storage"
)

// Compile-time interface check.
var _ Runtime = (*Static)(nil)

// AccessTokenKey is the local storage key the current access token is kept under.
const AccessTokenKey = "chayns.accessToken"

// ErrNoRefresh is returned by RefreshAccessToken when no refresh function is configured.
var ErrNoRefresh = errors.New("host: token refresh not configured")

// RefreshFunc obtains a fresh access token.
type RefreshFunc func(ctx context.Context) (string, error)

// Alert is a dialog recorded by Static.
type Alert struct {
	Title   string
	Message string
}

// Static is an in-memory Runtime. The access token lives in local storage so
// a Redis-backed store shares it across processes.
//
// Example:
//
//	rt := host.NewStatic(host.Env{SiteID: "60021-08989", TappID: 250357},
//	    host.WithToken(token),
//	    host.WithRefresh(func(ctx context.Context) (string, error) {
//	        return auth.Renew(ctx)
//	    }),
//	)
type Static struct {
	env      Env
	store    storage.Store
	refresh  RefreshFunc
	tokenTTL time.Duration
	seed     *string

	mu            sync.Mutex
	cursorVisible bool
	cursorText    string
	cursorShows   int
	alerts        []Alert
	refreshes     int
}

// StaticOption configures a Static runtime.
type StaticOption func(*Static)

// WithToken seeds the access token. It is stored after all options have
// run, so it honors WithStorage and WithTokenTTL in any order.
func WithToken(token string) StaticOption {
	return func(s *Static) {
		s.seed = &token
	}
}

// WithRefresh sets the function used for silent re-authentication.
func WithRefresh(fn RefreshFunc) StaticOption {
	return func(s *Static) {
		s.refresh = fn
	}
}

// WithStorage replaces the default in-memory local storage.
func WithStorage(store storage.Store) StaticOption {
	return func(s *Static) {
		s.store = store
	}
}

// WithTokenTTL limits how long a stored token is kept. Zero keeps it forever.
func WithTokenTTL(ttl time.Duration) StaticOption {
	return func(s *Static) {
		s.tokenTTL = ttl
	}
}

// NewStatic creates an in-memory runtime for env.
func NewStatic(env Env, opts ...StaticOption) *Static {
	s := &Static{
		env:   env,
		store: storage.NewMemory(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed != nil {
		_ = s.store.Set(context.Background(), AccessTokenKey, []byte(*s.seed), s.tokenTTL)
		s.seed = nil
	}
	return s
}

// Env implements Runtime.
func (s *Static) Env() Env {
	return s.env
}

// LocalStorage implements Runtime.
func (s *Static) LocalStorage() storage.Store {
	return s.store
}

// AccessToken implements TokenSource. A missing token yields "" without error.
func (s *Static) AccessToken(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, AccessTokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(token), nil
}

// RefreshAccessToken implements TokenSource.
func (s *Static) RefreshAccessToken(ctx context.Context) (string, error) {
	if s.refresh == nil {
		return "", ErrNoRefresh
	}

	token, err := s.refresh(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.refreshes++
	s.mu.Unlock()

	if err := s.store.Set(ctx, AccessTokenKey, []byte(token), s.tokenTTL); err != nil {
		return "", err
	}
	return token, nil
}

// Refreshes returns how often the token was refreshed.
func (s *Static) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

// ShowWaitCursor implements WaitCursor.
func (s *Static) ShowWaitCursor(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cursorVisible {
		s.cursorShows++
	}
	s.cursorVisible = true
	s.cursorText = text
}

// HideWaitCursor implements WaitCursor.
func (s *Static) HideWaitCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorVisible = false
	s.cursorText = ""
}

// WaitCursorState reports whether the wait cursor is visible, its text and
// how many times it was shown.
func (s *Static) WaitCursorState() (visible bool, text string, shows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursorVisible, s.cursorText, s.cursorShows
}

// Alert implements Dialogs.
func (s *Static) Alert(_ context.Context, title, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, Alert{Title: title, Message: message})
	return nil
}

// Alerts returns the recorded alerts.
func (s *Static) Alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Alert(nil), s.alerts...)
}
