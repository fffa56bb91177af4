package identity

import (
	"codepad/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of an identity token.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	ExpiresAt int64 // unix seconds, 0 if absent
}

type ssoClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// DecodeClaims extracts the claim set from a three-segment identity token
// without verifying its signature. Verification belongs to the identity
// provider; the client only needs the embedded profile. Any structural
// problem (segment count, base64 padding, claim JSON) fails with
// MalformedToken, which callers must treat as non-retryable.
func DecodeClaims(raw string) (Claims, error) {
	var sc ssoClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &sc); err != nil {
		return Claims{}, errors.Wrap(err, errors.MalformedToken)
	}

	claims := Claims{
		Subject: sc.Subject,
		Email:   sc.Email,
		Name:    sc.Name,
	}
	if sc.ExpiresAt != nil {
		claims.ExpiresAt = sc.ExpiresAt.Unix()
	}
	return claims, nil
}
