package session_test

import (
	"testing"

	"github.com/geocoder89/userhub/pkg/session"
)

func TestStoreLifecycle(t *testing.T) {
	s := session.NewStore()

	if s.Authenticated() {
		t.Fatal("fresh store should not be authenticated")
	}

	s.Set("tok", "Admin", "admin@example.com")

	if !s.Authenticated() {
		t.Fatal("store with token should be authenticated")
	}
	if s.Token() != "tok" || s.Role() != "Admin" || s.Email() != "admin@example.com" {
		t.Errorf("stored session = (%q, %q, %q)", s.Token(), s.Role(), s.Email())
	}

	// a second login replaces everything
	s.Set("tok2", "User", "user@example.com")

	if s.Token() != "tok2" || s.Role() != "User" {
		t.Errorf("replaced session = (%q, %q)", s.Token(), s.Role())
	}

	s.Clear()

	if s.Authenticated() || s.Role() != "" || s.Email() != "" {
		t.Error("clear must wipe every field")
	}
}
