package local

import (
	"context"
	"sync"
	"time"

	"codepad/internal/identity"
	pkgerrors "codepad/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const defaultAccessTokenTTL = 15 * time.Minute

type account struct {
	userID       string
	passwordHash []byte
}

// Provider is an in-memory identity provider. It backs the development
// client and the test suite; production deployments swap in a remote
// provider behind the same interface.
type Provider struct {
	jwtSecret      []byte
	jwtIssuer      string
	accessTokenTTL time.Duration

	mu       sync.Mutex
	accounts map[string]account
	current  *identity.Session
}

func New(jwtSecret, jwtIssuer string) *Provider {
	if jwtIssuer == "" {
		jwtIssuer = "codepad"
	}
	return &Provider{
		jwtSecret:      []byte(jwtSecret),
		jwtIssuer:      jwtIssuer,
		accessTokenTTL: defaultAccessTokenTTL,
		accounts:       make(map[string]account),
	}
}

// Register creates a local account with a bcrypt-hashed password.
func (p *Provider) Register(username, password string) error {
	if username == "" || password == "" {
		return pkgerrors.New(pkgerrors.InvalidParams)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return pkgerrors.Internal(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[username] = account{
		userID:       uuid.NewString(),
		passwordHash: hash,
	}
	return nil
}

func (p *Provider) SignIn(ctx context.Context, username, password string) (identity.Session, error) {
	p.mu.Lock()
	acct, ok := p.accounts[username]
	p.mu.Unlock()
	if !ok {
		return identity.Session{}, pkgerrors.New(pkgerrors.InvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return identity.Session{}, pkgerrors.New(pkgerrors.InvalidCredentials)
	}

	raw, expiresAt, err := p.mintAccessToken(acct.userID)
	if err != nil {
		return identity.Session{}, err
	}
	session := identity.Session{
		AccessToken: identity.AccessToken{
			Raw:       raw,
			Subject:   acct.userID,
			ExpiresAt: expiresAt,
		},
	}

	p.mu.Lock()
	p.current = &session
	p.mu.Unlock()
	return session, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	return nil
}

func (p *Provider) CurrentSession(ctx context.Context) (identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return identity.Session{}, pkgerrors.New(pkgerrors.NoCurrentUser)
	}
	if !p.current.AccessToken.ExpiresAt.IsZero() && time.Now().After(p.current.AccessToken.ExpiresAt) {
		p.current = nil
		return identity.Session{}, pkgerrors.New(pkgerrors.NoCurrentUser)
	}
	return *p.current, nil
}

func (p *Provider) FederatedSignIn(ctx context.Context, provider string, token identity.FederatedToken, user identity.UserProfile) error {
	if provider != "google" {
		return pkgerrors.Newf(pkgerrors.FederationRejected, "unsupported federation provider: %s", provider)
	}
	if token.Token == "" || user.Email == "" {
		return pkgerrors.New(pkgerrors.FederationRejected)
	}
	if !token.ExpiresAt.IsZero() && time.Now().After(token.ExpiresAt) {
		return pkgerrors.New(pkgerrors.FederationRejected).WithMessage("federated credential expired")
	}

	session := identity.Session{
		AccessToken: identity.AccessToken{
			Raw:       token.Token,
			Subject:   identity.UserIDFromEmail(user.Email),
			ExpiresAt: token.ExpiresAt,
		},
	}
	p.mu.Lock()
	p.current = &session
	p.mu.Unlock()
	return nil
}

type tokenClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func (p *Provider) mintAccessToken(userID string) (string, time.Time, error) {
	if len(p.jwtSecret) == 0 {
		return "", time.Time{}, pkgerrors.New(pkgerrors.InternalError).WithMessage("jwt secret not configured")
	}

	now := time.Now()
	expiresAt := now.Add(p.accessTokenTTL)
	claims := tokenClaims{
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.jwtIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString(p.jwtSecret)
	if err != nil {
		return "", time.Time{}, pkgerrors.Internal(err)
	}
	return raw, expiresAt, nil
}
