package session

import (
	"context"
	"time"

	"codepad/internal/identity"
	"codepad/internal/session/repository"
	"codepad/internal/ui"
	pkgerrors "codepad/pkg/errors"
	"codepad/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	homePath = "/home"
	rootPath = "/"

	noticeDuration = 4 * time.Second
)

// SSOResponse is the opaque credential envelope produced by an OAuth
// popup/button flow. Credential carries the identity token.
type SSOResponse struct {
	Credential string
}

// Controller orchestrates login, logout, SSO and hydration flows around the
// session store. Every flow catches its failures at this boundary,
// dispatches an error transition plus a notification, and never exits with
// the loading flag still set.
type Controller struct {
	store    *Store
	cookies  repository.CookieStore
	provider identity.Provider
	nav      ui.Navigator
	notifier ui.Notifier
}

func NewController(store *Store, cookies repository.CookieStore, provider identity.Provider, nav ui.Navigator, notifier ui.Notifier) *Controller {
	return &Controller{
		store:    store,
		cookies:  cookies,
		provider: provider,
		nav:      nav,
		notifier: notifier,
	}
}

// Store exposes the session store for read access.
func (c *Controller) Store() *Store {
	return c.store
}

// OnLoad hydrates the session state from the persisted auth record. A
// missing record or a NoCurrentUser answer from the provider is expected
// absence: the state stays unauthenticated and no error surfaces. The
// dispatches are generation-guarded, so a logout that completes while this
// flow is suspended wins; a stale hydration never resurrects the session.
func (c *Controller) OnLoad(ctx context.Context) error {
	gen := c.store.Generation()
	c.store.Dispatch(Event{Type: LoginStart}, Event{Type: Loading})

	info, err := c.readPersisted(ctx)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.NoCurrentUser) {
			// Expected absence during hydration, swallowed.
			c.store.TryDispatch(gen, Event{Type: SessionSet, Session: &Info{}}, Event{Type: LoginEnd}, Event{Type: DoneLoading})
			return nil
		}
		logger.Error(ctx, "session hydration failed", zap.Error(err))
		c.store.Dispatch(Event{Type: LoginError, Err: pkgerrors.GetCode(err)}, Event{Type: DoneLoading})
		c.notifier.Notify(ui.Error, err.Error(), noticeDuration)
		return err
	}

	if !c.store.TryDispatch(gen, Event{Type: SessionSet, Session: info}, Event{Type: LoginEnd}, Event{Type: DoneLoading}) {
		logger.Warn(ctx, "hydration discarded, session invalidated while loading")
		c.store.Dispatch(Event{Type: DoneLoading})
	}
	return nil
}

func (c *Controller) readPersisted(ctx context.Context) (*Info, error) {
	flag, ok, err := c.cookies.Get(ctx, repository.KeyIsLoggedIn)
	if err != nil {
		return nil, err
	}
	if !ok || flag == "" {
		return &Info{}, nil
	}

	token, _, err := c.cookies.Get(ctx, repository.KeyJWTToken)
	if err != nil {
		return nil, err
	}
	userID, _, err := c.cookies.Get(ctx, repository.KeyUserID)
	if err != nil {
		return nil, err
	}
	loginType, _, err := c.cookies.Get(ctx, repository.KeyLoginType)
	if err != nil {
		return nil, err
	}

	// The persisted flag alone is not trusted; the provider confirms a
	// session still exists. NoCurrentUser propagates as expected absence.
	if _, err := c.provider.CurrentSession(ctx); err != nil {
		return nil, err
	}

	return &Info{
		IsAuthenticated: true,
		SessionToken:    token,
		UserID:          userID,
		LoginType:       LoginType(loginType),
	}, nil
}

// BasicLogin signs in with username and password. On success the four-field
// auth record is persisted with a one-year expiry before any navigation; on
// failure nothing is persisted and the state reverts to its pre-call value.
func (c *Controller) BasicLogin(ctx context.Context, username, password string) error {
	c.store.Dispatch(Event{Type: LoginStart}, Event{Type: Loading})

	sess, err := c.provider.SignIn(ctx, username, password)
	if err != nil {
		return c.failLogin(ctx, "basic login failed", err)
	}

	token := sess.AccessToken.Raw
	userID := sess.AccessToken.Subject
	if err := c.persistAuthRecord(ctx, token, userID, LoginTypeCognito); err != nil {
		return c.failLogin(ctx, "persist auth record failed", err)
	}

	c.store.Dispatch(
		Event{Type: SessionSet, Session: &Info{
			IsAuthenticated: true,
			SessionToken:    token,
			UserID:          userID,
			LoginType:       LoginTypeCognito,
			Expiration:      sess.AccessToken.ExpiresAt,
		}},
		Event{Type: LoginEnd},
		Event{Type: DoneLoading},
	)
	logger.Info(ctx, "login succeeded", zap.String("user_id", userID), zap.String("login_type", string(LoginTypeCognito)))
	c.nav.NavigateTo(homePath)
	return nil
}

// GoogleSSOLogin exchanges an SSO credential for a federated session. The
// credential's claims are decoded first (malformed tokens abort before any
// provider call) and the user id is derived deterministically from the
// verified email. Persistence completes before navigation so a redirect
// never lands on an unauthenticated view.
func (c *Controller) GoogleSSOLogin(ctx context.Context, resp SSOResponse) error {
	c.store.Dispatch(Event{Type: LoginStart}, Event{Type: Loading})

	claims, err := identity.DecodeClaims(resp.Credential)
	if err != nil {
		return c.failLogin(ctx, "sso credential decode failed", err)
	}

	userID := identity.UserIDFromEmail(claims.Email)
	federated := identity.FederatedToken{Token: resp.Credential}
	if claims.ExpiresAt > 0 {
		federated.ExpiresAt = time.Unix(claims.ExpiresAt, 0)
	}
	err = c.provider.FederatedSignIn(ctx, "google", federated, identity.UserProfile{
		Email: claims.Email,
		Name:  claims.Name,
	})
	if err != nil {
		return c.failLogin(ctx, "federated sign-in failed", err)
	}

	if err := c.persistAuthRecord(ctx, resp.Credential, userID, LoginTypeGoogleSSO); err != nil {
		return c.failLogin(ctx, "persist auth record failed", err)
	}

	c.store.Dispatch(Event{Type: SessionSet, Session: &Info{
		IsAuthenticated: true,
		SessionToken:    resp.Credential,
		UserID:          userID,
		LoginType:       LoginTypeGoogleSSO,
		Expiration:      federated.ExpiresAt,
	}})
	c.nav.NavigateTo(rootPath)
	c.store.Dispatch(Event{Type: LoginEnd}, Event{Type: DoneLoading})
	logger.Info(ctx, "sso login succeeded", zap.String("user_id", userID))
	return nil
}

// Logout signs out with the provider, removes the persisted record with the
// same path scope it was written with, and resets the session state. On
// failure the persisted state is left untouched for a later retry.
func (c *Controller) Logout(ctx context.Context) error {
	c.store.Dispatch(Event{Type: LogoutStart}, Event{Type: Loading})

	if err := c.provider.SignOut(ctx); err != nil {
		return c.failLogout(ctx, "provider sign-out failed", err)
	}

	opts := repository.Options{Path: repository.DefaultPath}
	if err := c.cookies.Remove(ctx, repository.KeyIsLoggedIn, opts); err != nil {
		return c.failLogout(ctx, "remove login flag failed", err)
	}
	if err := c.cookies.Remove(ctx, repository.KeyJWTToken, opts); err != nil {
		return c.failLogout(ctx, "remove token failed", err)
	}

	// LogoutEnd bumps the store generation, invalidating any hydration
	// still in flight.
	c.store.Dispatch(
		Event{Type: SessionSet, Session: &Info{}},
		Event{Type: LogoutEnd},
		Event{Type: DoneLoading},
	)
	logger.Info(ctx, "logout succeeded")
	c.nav.NavigateTo(rootPath)
	return nil
}

func (c *Controller) persistAuthRecord(ctx context.Context, token, userID string, loginType LoginType) error {
	opts := repository.Options{Path: repository.DefaultPath, ExpiresAt: repository.DefaultExpiry()}
	if err := c.cookies.Set(ctx, repository.KeyIsLoggedIn, "true", opts); err != nil {
		return err
	}
	if err := c.cookies.Set(ctx, repository.KeyJWTToken, token, opts); err != nil {
		return err
	}
	if err := c.cookies.Set(ctx, repository.KeyLoginType, string(loginType), opts); err != nil {
		return err
	}
	return c.cookies.Set(ctx, repository.KeyUserID, userID, opts)
}

func (c *Controller) failLogin(ctx context.Context, msg string, err error) error {
	logger.Error(ctx, msg, zap.Error(err))
	c.store.Dispatch(Event{Type: LoginError, Err: pkgerrors.GetCode(err)}, Event{Type: DoneLoading})
	c.notifier.Notify(ui.Error, err.Error(), noticeDuration)
	return err
}

func (c *Controller) failLogout(ctx context.Context, msg string, err error) error {
	logger.Error(ctx, msg, zap.Error(err))
	c.store.Dispatch(Event{Type: LogoutError, Err: pkgerrors.GetCode(err)}, Event{Type: DoneLoading})
	c.notifier.Notify(ui.Error, err.Error(), noticeDuration)
	return err
}
