package core

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
)

// TestWriteJSON verifies write JSON behavior.
func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, map[string]bool{"ok": true})
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Fatalf("expected JSON content type, got %q", got)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"ok":true}` {
		t.Fatalf("unexpected body %q", body)
	}
}

// TestRandomToken verifies random token behavior.
func TestRandomToken(t *testing.T) {
	a, b := RandomToken(16), RandomToken(16)
	if len(a) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(a))
	}
	if a == b {
		t.Fatalf("expected distinct tokens")
	}
}

// TestSubtleCompare verifies subtle compare behavior.
func TestSubtleCompare(t *testing.T) {
	if !SubtleCompare("token", "token") {
		t.Fatalf("expected equal tokens to match")
	}
	if SubtleCompare("token", "other") || SubtleCompare("token", "") {
		t.Fatalf("expected mismatched tokens to fail")
	}
}

// TestShortHash verifies short hash behavior.
func TestShortHash(t *testing.T) {
	hash := ShortHash("bookclub", 12)
	if len(hash) != 12 {
		t.Fatalf("expected length 12, got %d", len(hash))
	}
	if !strings.HasPrefix(Sha256Hex("bookclub"), hash) {
		t.Fatalf("expected prefix of full digest")
	}
	full := ShortHash("bookclub", 0)
	if len(full) != 64 {
		t.Fatalf("expected full hash length, got %d", len(full))
	}
}

// TestSessionUserID verifies session user ID behavior.
func TestSessionUserID(t *testing.T) {
	session := &sessions.Session{Values: map[interface{}]interface{}{"user_id": 42}}
	if id, ok := SessionUserID(session); !ok || id != 42 {
		t.Fatalf("expected int user id")
	}
	session.Values["user_id"] = int64(7)
	if id, ok := SessionUserID(session); !ok || id != 7 {
		t.Fatalf("expected int64 user id")
	}
	session.Values["user_id"] = float64(9)
	if id, ok := SessionUserID(session); !ok || id != 9 {
		t.Fatalf("expected float64 user id")
	}
	delete(session.Values, "user_id")
	if _, ok := SessionUserID(session); ok {
		t.Fatalf("expected missing user id")
	}
	if _, ok := SessionUserID(nil); ok {
		t.Fatalf("expected nil session to have no user")
	}
}
