package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"codepad/internal/identity"
	"codepad/internal/session/repository"
	"codepad/internal/ui"
	pkgerrors "codepad/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// eventLog records side effects across fakes so ordering can be asserted.
type eventLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *eventLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

type fakeEntry struct {
	value string
	path  string
}

type fakeCookies struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	log     *eventLog
	writes  int
}

func newFakeCookies(log *eventLog) *fakeCookies {
	return &fakeCookies{entries: make(map[string]fakeEntry), log: log}
}

func (c *fakeCookies) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	return entry.value, true, nil
}

func (c *fakeCookies) Set(ctx context.Context, key, value string, opts repository.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = fakeEntry{value: value, path: opts.Path}
	c.writes++
	if c.log != nil {
		c.log.add("set:" + key)
	}
	return nil
}

func (c *fakeCookies) Remove(ctx context.Context, key string, opts repository.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || entry.path != opts.Path {
		return nil
	}
	delete(c.entries, key)
	return nil
}

func (c *fakeCookies) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *fakeCookies) value(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key].value
}

func (c *fakeCookies) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type fakeProvider struct {
	session       identity.Session
	signInErr     error
	currentErr    error
	federatedErr  error
	federatedWith []string
	onCurrent     func()
}

func (p *fakeProvider) SignIn(ctx context.Context, username, password string) (identity.Session, error) {
	if p.signInErr != nil {
		return identity.Session{}, p.signInErr
	}
	return p.session, nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	return nil
}

func (p *fakeProvider) CurrentSession(ctx context.Context) (identity.Session, error) {
	if p.onCurrent != nil {
		p.onCurrent()
	}
	if p.currentErr != nil {
		return identity.Session{}, p.currentErr
	}
	return p.session, nil
}

func (p *fakeProvider) FederatedSignIn(ctx context.Context, provider string, token identity.FederatedToken, user identity.UserProfile) error {
	p.federatedWith = append(p.federatedWith, provider)
	if p.federatedErr != nil {
		return p.federatedErr
	}
	return nil
}

type notice struct {
	kind     ui.Kind
	message  string
	duration time.Duration
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notify(kind ui.Kind, message string, duration time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{kind: kind, message: message, duration: duration})
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

type harness struct {
	controller *Controller
	store      *Store
	cookies    *fakeCookies
	provider   *fakeProvider
	notifier   *recordingNotifier
	log        *eventLog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := &eventLog{}
	cookies := newFakeCookies(log)
	provider := &fakeProvider{
		session: identity.Session{AccessToken: identity.AccessToken{
			Raw:       "access-token",
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(time.Hour),
		}},
	}
	notifier := &recordingNotifier{}
	store := NewStore()
	nav := ui.NavigateFunc(func(path string) { log.add("nav:" + path) })
	return &harness{
		controller: NewController(store, cookies, provider, nav, notifier),
		store:      store,
		cookies:    cookies,
		provider:   provider,
		notifier:   notifier,
		log:        log,
	}
}

func newSSOCredential(t *testing.T, email, name string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"email": email,
		"name":  name,
		"sub":   "sso-subject",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("sso-secret"))
	if err != nil {
		t.Fatalf("sign credential failed: %v", err)
	}
	return raw
}

func TestBasicLoginSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.controller.BasicLogin(ctx, "alice", "password123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	state := h.store.Snapshot()
	if !state.IsAuthenticated {
		t.Fatal("expected authenticated state")
	}
	if state.SessionToken != "access-token" || state.UserID != "user-1" {
		t.Fatalf("unexpected session fields: %+v", state)
	}
	if state.LoginType != LoginTypeCognito {
		t.Fatalf("unexpected login type: %s", state.LoginType)
	}
	if state.IsLoading {
		t.Fatal("flow left the loading flag set")
	}

	if h.cookies.value(repository.KeyIsLoggedIn) != "true" {
		t.Fatal("login flag not persisted")
	}
	if h.cookies.value(repository.KeyLoginType) != "cognito" {
		t.Fatalf("unexpected persisted login type: %s", h.cookies.value(repository.KeyLoginType))
	}
	if h.cookies.value(repository.KeyUserID) != "user-1" {
		t.Fatal("user id not persisted")
	}

	events := h.log.all()
	if len(events) == 0 || events[len(events)-1] != "nav:/home" {
		t.Fatalf("expected navigation to /home last, got %v", events)
	}
}

func TestBasicLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)
	h.provider.signInErr = pkgerrors.New(pkgerrors.InvalidCredentials)
	ctx := context.Background()

	err := h.controller.BasicLogin(ctx, "alice", "wrong")
	if !pkgerrors.Is(err, pkgerrors.InvalidCredentials) {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}

	state := h.store.Snapshot()
	if state.IsAuthenticated {
		t.Fatal("failed login must not authenticate")
	}
	if state.LastError != pkgerrors.InvalidCredentials {
		t.Fatalf("unexpected last error: %v", state.LastError)
	}
	if state.IsLoading {
		t.Fatal("failed flow left the loading flag set")
	}
	if h.cookies.writeCount() != 0 {
		t.Fatalf("failed login persisted %d writes", h.cookies.writeCount())
	}
	if h.notifier.count() == 0 {
		t.Fatal("expected a user notification")
	}
}

func TestGoogleSSOLoginDerivesStableUserID(t *testing.T) {
	ctx := context.Background()
	wantID := identity.UserIDFromEmail("alice@example.com")

	for i := 0; i < 2; i++ {
		h := newHarness(t)
		cred := newSSOCredential(t, "alice@example.com", "Alice")
		if err := h.controller.GoogleSSOLogin(ctx, SSOResponse{Credential: cred}); err != nil {
			t.Fatalf("sso login failed: %v", err)
		}
		if got := h.cookies.value(repository.KeyUserID); got != wantID {
			t.Fatalf("derived id mismatch: got %s want %s", got, wantID)
		}
		if h.cookies.value(repository.KeyLoginType) != "googleSSO" {
			t.Fatalf("unexpected login type: %s", h.cookies.value(repository.KeyLoginType))
		}
		if len(h.provider.federatedWith) != 1 || h.provider.federatedWith[0] != "google" {
			t.Fatalf("unexpected federated calls: %v", h.provider.federatedWith)
		}
	}
}

func TestGoogleSSOLoginPersistsBeforeNavigation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cred := newSSOCredential(t, "alice@example.com", "Alice")
	if err := h.controller.GoogleSSOLogin(ctx, SSOResponse{Credential: cred}); err != nil {
		t.Fatalf("sso login failed: %v", err)
	}

	events := h.log.all()
	navIndex := -1
	lastSetIndex := -1
	for i, ev := range events {
		switch {
		case ev == "nav:/":
			navIndex = i
		case len(ev) > 4 && ev[:4] == "set:":
			lastSetIndex = i
		}
	}
	if navIndex == -1 {
		t.Fatalf("no navigation recorded: %v", events)
	}
	if lastSetIndex > navIndex {
		t.Fatalf("persistence must complete before navigation: %v", events)
	}
}

func TestGoogleSSOLoginMalformedCredential(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.controller.GoogleSSOLogin(ctx, SSOResponse{Credential: "not-a-token"})
	if !pkgerrors.Is(err, pkgerrors.MalformedToken) {
		t.Fatalf("expected MalformedToken, got %v", err)
	}
	if len(h.provider.federatedWith) != 0 {
		t.Fatal("malformed credential must abort before the provider call")
	}
	if h.cookies.writeCount() != 0 {
		t.Fatal("malformed credential must not persist anything")
	}
	if h.store.Snapshot().IsLoading {
		t.Fatal("failed flow left the loading flag set")
	}
}

func TestLogoutRemovesRecordAndResets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.controller.BasicLogin(ctx, "alice", "password123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := h.controller.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	state := h.store.Snapshot()
	if state.IsAuthenticated || state.SessionToken != "" || state.UserID != "" {
		t.Fatalf("logout must reset the session: %+v", state)
	}
	if h.cookies.has(repository.KeyIsLoggedIn) || h.cookies.has(repository.KeyJWTToken) {
		t.Fatal("logout must remove the login flag and token")
	}
}

func TestLogoutThenHydrationStaysLoggedOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.controller.BasicLogin(ctx, "alice", "password123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Logout completes while OnLoad is suspended on the provider check,
	// simulating a stale hydration racing a logout.
	ranLogout := false
	h.provider.onCurrent = func() {
		if ranLogout {
			return
		}
		ranLogout = true
		if err := h.controller.Logout(ctx); err != nil {
			t.Errorf("logout failed: %v", err)
		}
	}

	// Re-seed stale cookie values as if a cached read still saw them.
	_ = h.cookies.Set(ctx, repository.KeyIsLoggedIn, "true", repository.Options{Path: repository.DefaultPath})
	_ = h.cookies.Set(ctx, repository.KeyJWTToken, "stale-token", repository.Options{Path: repository.DefaultPath})

	if err := h.controller.OnLoad(ctx); err != nil {
		t.Fatalf("onload failed: %v", err)
	}

	if h.store.Snapshot().IsAuthenticated {
		t.Fatal("stale hydration resurrected a logged-out session")
	}
	if h.store.Snapshot().IsLoading {
		t.Fatal("hydration left the loading flag set")
	}
}

func TestOnLoadWithoutRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.controller.OnLoad(ctx); err != nil {
		t.Fatalf("onload failed: %v", err)
	}
	state := h.store.Snapshot()
	if state.IsAuthenticated {
		t.Fatal("no record must mean unauthenticated")
	}
	if state.IsLoading {
		t.Fatal("hydration left the loading flag set")
	}
	if h.notifier.count() != 0 {
		t.Fatal("absence is not an error, no notification expected")
	}
}

func TestOnLoadSwallowsNoCurrentUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	opts := repository.Options{Path: repository.DefaultPath, ExpiresAt: repository.DefaultExpiry()}
	_ = h.cookies.Set(ctx, repository.KeyIsLoggedIn, "true", opts)
	_ = h.cookies.Set(ctx, repository.KeyJWTToken, "tok", opts)
	h.provider.currentErr = pkgerrors.New(pkgerrors.NoCurrentUser)

	if err := h.controller.OnLoad(ctx); err != nil {
		t.Fatalf("NoCurrentUser must be swallowed, got %v", err)
	}
	if h.store.Snapshot().IsAuthenticated {
		t.Fatal("expected unauthenticated state")
	}
	if h.notifier.count() != 0 {
		t.Fatal("expected-absence must not notify the user")
	}
}

func TestOnLoadRestoresSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	opts := repository.Options{Path: repository.DefaultPath, ExpiresAt: repository.DefaultExpiry()}
	_ = h.cookies.Set(ctx, repository.KeyIsLoggedIn, "true", opts)
	_ = h.cookies.Set(ctx, repository.KeyJWTToken, "persisted-token", opts)
	_ = h.cookies.Set(ctx, repository.KeyUserID, "user-1", opts)
	_ = h.cookies.Set(ctx, repository.KeyLoginType, "cognito", opts)

	if err := h.controller.OnLoad(ctx); err != nil {
		t.Fatalf("onload failed: %v", err)
	}
	state := h.store.Snapshot()
	if !state.IsAuthenticated {
		t.Fatal("expected restored session")
	}
	if state.SessionToken != "persisted-token" || state.UserID != "user-1" {
		t.Fatalf("unexpected restored fields: %+v", state)
	}
	if state.LoginType != LoginTypeCognito {
		t.Fatalf("unexpected login type: %s", state.LoginType)
	}
}
