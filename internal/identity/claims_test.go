package identity

import (
	"encoding/base64"
	"testing"
	"time"

	pkgerrors "codepad/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

func newSSOToken(t *testing.T, email, name, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"email": email,
		"name":  name,
		"sub":   subject,
		"exp":   expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return raw
}

func TestDecodeClaimsRoundTrip(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := newSSOToken(t, "alice@example.com", "Alice", "alice-sub", expiresAt)

	claims, err := DecodeClaims(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("unexpected email: %s", claims.Email)
	}
	if claims.Name != "Alice" {
		t.Fatalf("unexpected name: %s", claims.Name)
	}
	if claims.Subject != "alice-sub" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.ExpiresAt != expiresAt.Unix() {
		t.Fatalf("unexpected expiry: got %d want %d", claims.ExpiresAt, expiresAt.Unix())
	}
}

func TestDecodeClaimsMalformed(t *testing.T) {
	badJSON := base64.RawURLEncoding.EncodeToString([]byte("{not json"))

	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"two segments", "aaaa.bbbb"},
		{"bad base64 payload", "aaaa.!!!!.cccc"},
		{"payload not json", "aaaa." + badJSON + ".cccc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeClaims(tc.raw)
			if err == nil {
				t.Fatalf("expected error for %q", tc.raw)
			}
			if pkgerrors.GetCode(err) != pkgerrors.MalformedToken {
				t.Fatalf("expected MalformedToken, got %v", pkgerrors.GetCode(err))
			}
		})
	}
}
