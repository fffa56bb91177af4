package identity

import "testing"

func TestUserIDFromEmailDeterministic(t *testing.T) {
	first := UserIDFromEmail("alice@example.com")
	second := UserIDFromEmail("alice@example.com")
	if first != second {
		t.Fatalf("same email produced different ids: %s vs %s", first, second)
	}
	if first == "" {
		t.Fatal("derived id is empty")
	}
}

func TestUserIDFromEmailNormalizes(t *testing.T) {
	plain := UserIDFromEmail("alice@example.com")
	shouty := UserIDFromEmail("  ALICE@Example.COM ")
	if plain != shouty {
		t.Fatalf("normalization mismatch: %s vs %s", plain, shouty)
	}
}

func TestUserIDFromEmailDistinct(t *testing.T) {
	alice := UserIDFromEmail("alice@example.com")
	bob := UserIDFromEmail("bob@example.com")
	if alice == bob {
		t.Fatalf("distinct emails produced the same id: %s", alice)
	}
}
