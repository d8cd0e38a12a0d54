// Package session holds the dashboard's authenticated identity: it logs in
// against the backend, persists the bearer token, mirrors it into the
// auth-token cookie, installs it on the API client, and logs out when the
// token expires or the backend rejects it.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/simp-lee/hireline/internal/apiclient"
	"github.com/simp-lee/hireline/internal/domain"
)

// Defaults applied by New.
const (
	DefaultLoginPath     = "/login"
	DefaultCookieMaxAge  = 7 * 24 * time.Hour
	DefaultCheckInterval = 5 * time.Minute
)

// Navigator performs the client-side redirect issued by Logout.
type Navigator interface {
	Redirect(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Redirect calls f(path).
func (f NavigatorFunc) Redirect(path string) { f(path) }

// State is a read-only view of the session.
type State struct {
	User            *domain.Identity
	AccessToken     string
	IsAuthenticated bool
	Loading         bool
	LastError       string
}

// Options configures a Session.
type Options struct {
	Client        *apiclient.Client
	Storage       Storage
	Navigator     Navigator
	Logger        *slog.Logger
	LoginPath     string
	CookieMaxAge  time.Duration
	CheckInterval time.Duration
	Now           func() time.Time
}

// Session is the auth state shared by every store through the API client.
type Session struct {
	client        *apiclient.Client
	storage       Storage
	navigator     Navigator
	logger        *slog.Logger
	loginPath     string
	cookieMaxAge  time.Duration
	checkInterval time.Duration
	now           func() time.Time

	mu    sync.RWMutex
	state State

	cronMu sync.Mutex
	cron   *cron.Cron
}

// New creates a Session and registers its Logout as the client's
// auth-failure hook.
func New(opts Options) (*Session, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("session: api client is required")
	}
	s := &Session{
		client:        opts.Client,
		storage:       opts.Storage,
		navigator:     opts.Navigator,
		logger:        opts.Logger,
		loginPath:     opts.LoginPath,
		cookieMaxAge:  opts.CookieMaxAge,
		checkInterval: opts.CheckInterval,
		now:           opts.Now,
	}
	if s.storage == nil {
		s.storage = NewMemoryStorage()
	}
	if s.navigator == nil {
		s.navigator = NavigatorFunc(func(string) {})
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.loginPath == "" {
		s.loginPath = DefaultLoginPath
	}
	if s.cookieMaxAge <= 0 {
		s.cookieMaxAge = DefaultCookieMaxAge
	}
	if s.checkInterval <= 0 {
		s.checkInterval = DefaultCheckInterval
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.client.OnAuthFailure(s.Logout)
	return s, nil
}

// State returns a copy of the current session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// IsAuthenticated reports whether a token is installed.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}

// ClearError drops the last error message.
func (s *Session) ClearError() {
	s.mu.Lock()
	s.state.LastError = ""
	s.mu.Unlock()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts credentials and, on success, installs the returned token in
// memory, durable storage, the auth-token cookie and the API client.
func (s *Session) Login(ctx context.Context, identifier, secret string) (domain.Identity, error) {
	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return domain.Identity{}, domain.ErrBusy
	}
	s.state.Loading = true
	s.state.LastError = ""
	s.mu.Unlock()

	var res domain.LoginResult
	err := s.client.Post(ctx, "/auth/login", loginRequest{
		Email:    strings.TrimSpace(identifier),
		Password: secret,
	}, &res)
	if err == nil && res.AccessToken == "" {
		err = domain.NewAppError(domain.CodeNetwork, "login response carried no token", nil)
	}
	if err != nil {
		s.clearPersisted(ctx)
		msg := apiclient.BackendMessage(err)
		if msg == "" {
			msg = "Login failed"
		}
		s.mu.Lock()
		s.state = State{LastError: msg}
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "login failed", slog.String("identifier", identifier), slog.Any("error", err))
		return domain.Identity{}, err
	}

	s.install(res.AccessToken, res.User)
	if err := s.storage.Save(ctx, Persisted{AccessToken: res.AccessToken, User: res.User}); err != nil {
		s.logger.ErrorContext(ctx, "persist session failed", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "logged in", slog.Uint64("user_id", uint64(res.User.ID)))
	return res.User, nil
}

// Restore reloads a persisted session, reinstalls it, and immediately runs
// the expiry self-check. It reports whether an unexpired session was restored.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	p, err := s.storage.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if p == nil || p.AccessToken == "" {
		return false, nil
	}
	s.install(p.AccessToken, p.User)
	return s.CheckExpiry(), nil
}

// Logout clears memory, durable storage, the cookie and the client header,
// then redirects to the login page. It never fails.
func (s *Session) Logout() {
	s.mu.Lock()
	wasAuthenticated := s.state.IsAuthenticated
	s.state = State{}
	s.mu.Unlock()

	s.clearPersisted(context.Background())

	if wasAuthenticated {
		s.logger.Info("logged out")
	}
	s.navigator.Redirect(s.loginPath)
}

// CheckExpiry decodes the token's exp claim (signature is not verified) and
// logs out when it lies in the past or the token cannot be decoded. It
// reports whether the session is still valid.
func (s *Session) CheckExpiry() bool {
	s.mu.RLock()
	token := s.state.AccessToken
	s.mu.RUnlock()
	if token == "" {
		return false
	}

	exp, ok, err := TokenExpiry(token)
	if err != nil {
		s.logger.Warn("undecodable session token", slog.Any("error", err))
		s.Logout()
		return false
	}
	if ok && !s.now().Before(exp) {
		s.logger.Info("session token expired", slog.Time("expired_at", exp))
		s.Logout()
		return false
	}
	return true
}

// Start runs the expiry self-check once and then on a fixed interval until
// Stop is called.
func (s *Session) Start() error {
	s.cronMu.Lock()
	defer s.cronMu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.checkInterval), func() { s.CheckExpiry() }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.CheckExpiry()
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the periodic expiry check.
func (s *Session) Stop() {
	s.cronMu.Lock()
	defer s.cronMu.Unlock()
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

func (s *Session) install(token string, user domain.Identity) {
	u := user
	s.mu.Lock()
	s.state = State{User: &u, AccessToken: token, IsAuthenticated: true}
	s.mu.Unlock()

	s.client.SetToken(token)
	s.setCookie(token, s.now().Add(s.cookieMaxAge), int(s.cookieMaxAge/time.Second))
}

func (s *Session) clearPersisted(ctx context.Context) {
	s.client.ClearToken()
	s.setCookie("", time.Unix(0, 0), -1)
	if err := s.storage.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "clear persisted session failed", slog.Any("error", err))
	}
}

func (s *Session) setCookie(value string, expires time.Time, maxAge int) {
	jar := s.client.Jar()
	if jar == nil {
		return
	}
	jar.SetCookies(s.client.BaseURL(), []*http.Cookie{{
		Name:     domain.AuthCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	}})
}
