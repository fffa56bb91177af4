package identity

import (
	"strings"

	"github.com/google/uuid"
)

// Namespace for email-derived user ids. Changing it would change every
// derived id, so it is fixed for the lifetime of the stored data.
var userIDNamespace = uuid.MustParse("9d1b7e2a-4c83-4f6e-9b5a-2f0c6d8e1a37")

// UserIDFromEmail derives a stable user id from an email address. The same
// email always yields the same id; distinct emails yield distinct ids up to
// SHA-1 collision resistance, which is enough for per-user partitioning.
func UserIDFromEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return uuid.NewSHA1(userIDNamespace, []byte(normalized)).String()
}
