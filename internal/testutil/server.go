package testutil

import (
	"database/sql"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"bookclub/internal/config"
	"bookclub/internal/platform/core"
	bookclubserver "bookclub/internal/platform/server"
	sqlitestore "bookclub/internal/platform/storage/sqlite"
)

// TestConfig returns a config rooted in a fresh temp directory with the
// built-in size tables.
func TestConfig(t *testing.T) config.Config {
	t.Helper()
	tempDir := t.TempDir()
	uploadsDir := filepath.Join(tempDir, "uploads")
	return config.Config{
		SecretKey:        "test-secret",
		StaticDir:        filepath.Join(tempDir, "static"),
		UploadsDir:       uploadsDir,
		AvatarDir:        filepath.Join(uploadsDir, "avatars"),
		AvatarCacheDir:   filepath.Join(uploadsDir, "cache", "avatars"),
		PublicPath:       "/uploads",
		DefaultAvatarURL: "/static/img/default.png",
		AllowedTypes:     []string{"image/jpeg", "image/png", "image/gif"},
		MaxSize:          2 << 20,
		Quality:          85,
		Locale:           "en-US",
		DefaultWidth:     64,
		DefaultHeight:    64,
		BgColor:          color.RGBA{R: 0x4a, G: 0x6f, B: 0xa5, A: 0xff},
		TextColor:        color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		AvatarSizes:      config.DefaultAvatarSizes(),
		ThumbnailSizes:   config.DefaultThumbnailSizes(),
		CookieSameSite:   http.SameSiteLaxMode,
	}
}

// Logger discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenDB returns an initialized in-memory database.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := sqlitestore.InitDB(db); err != nil {
		t.Fatalf("init db: %v", err)
	}
	return db
}

func NewServer(t *testing.T) *bookclubserver.Server {
	t.Helper()
	return NewServerWithConfig(t, TestConfig(t))
}

func NewServerWithConfig(t *testing.T, cfg config.Config) *bookclubserver.Server {
	t.Helper()
	srv, err := bookclubserver.NewServer(cfg, OpenDB(t), Logger())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

// SessionCookies returns cookies for a session holding userID and csrfToken.
func SessionCookies(t *testing.T, srv *bookclubserver.Server, userID int, csrfToken string) []*http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, err := srv.GetSession(req, core.SessionName)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	session.Values["user_id"] = userID
	session.Values["csrf_token"] = csrfToken
	if err := session.Save(req, rec); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return rec.Result().Cookies()
}
