package identity

import (
	"context"
	"time"
)

// AccessToken is the provider-issued token for an authenticated session.
type AccessToken struct {
	Raw       string
	Subject   string
	ExpiresAt time.Time
}

// Session is the authenticated identity context returned by the provider.
type Session struct {
	AccessToken AccessToken
}

// UserProfile carries the verified profile handed to a federated sign-in.
type UserProfile struct {
	Email string
	Name  string
}

// FederatedToken is a third-party credential exchanged for a provider session.
type FederatedToken struct {
	Token     string
	ExpiresAt time.Time
}

// Provider is the identity-provider capability. CurrentSession returns a
// NoCurrentUser error when nobody is signed in; callers must treat that as
// expected absence, not a failure.
type Provider interface {
	SignIn(ctx context.Context, username, password string) (Session, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (Session, error)
	FederatedSignIn(ctx context.Context, provider string, token FederatedToken, user UserProfile) error
}
