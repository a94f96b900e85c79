// Package avatar stores uploaded avatars, generates initials placeholders and
// serves derived sizes from a write-through disk cache.
package avatar

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/message"

	"bookclub/internal/config"
	"bookclub/internal/platform/i18n"
	"bookclub/internal/platform/media"
)

var errDirectoryCreate = errors.New("directory could not be created")

// Manager validates, stores, derives and deletes avatar files.
type Manager struct {
	cfg     Config
	printer *message.Printer
	logger  *slog.Logger
	now     func() time.Time
	token   func() string
}

// NewManager builds a manager. A nil printer or logger falls back to the
// base locale and slog.Default. A Quality below 1 only reaches here from a
// Config built outside config.LoadConfig and uses the media default.
func NewManager(cfg Config, printer *message.Printer, logger *slog.Logger) *Manager {
	if printer == nil {
		printer = i18n.Printer(i18n.BaseLocale)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Quality <= 0 {
		cfg.Quality = media.DefaultQuality
	}
	return &Manager{
		cfg:     cfg,
		printer: printer,
		logger:  logger.With("component", "avatar"),
		now:     time.Now,
		token:   uuid.NewString,
	}
}

// Config returns the manager configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Upload validates an uploaded file and stores a fit-resized copy under the
// avatar directory. Checks run in order (transport status, content type,
// size) and nothing is written unless all of them pass.
func (m *Manager) Upload(f File, userID int) Result {
	if f.Error != UploadOK {
		m.logger.Warn("avatar upload rejected by transport", "user_id", userID, "upload_error", int(f.Error))
		return failed(KindUploadTransport, m.printer.Sprintf(f.Error.messageKey()))
	}

	mime, err := media.DetectMIME(f.TempPath)
	if errors.Is(err, fs.ErrNotExist) {
		m.logger.Warn("avatar upload source missing", "user_id", userID, "path", f.TempPath)
		return failed(KindMissingSource, m.printer.Sprintf(i18n.UploadErrNoFile))
	}
	if err != nil {
		m.logger.Error("avatar upload unreadable", "user_id", userID, "error", err)
		return failed(KindProcessingFailed, m.printer.Sprintf(i18n.UploadProcessingFailed))
	}
	if !slices.Contains(m.cfg.AllowedTypes, mime) {
		return failed(KindUnsupportedMIME, m.printer.Sprintf(i18n.UploadUnsupportedType, strings.Join(m.cfg.AllowedTypes, ", ")))
	}

	size := f.Size
	if size <= 0 {
		if info, err := os.Stat(f.TempPath); err == nil {
			size = info.Size()
		}
	}
	if size > m.cfg.MaxSize {
		return failed(KindFileTooLarge, m.printer.Sprintf(i18n.UploadTooLarge, megabytes(m.cfg.MaxSize)))
	}

	if err := ensureDir(m.cfg.AvatarDir); err != nil {
		m.logger.Error("avatar directory unavailable", "user_id", userID, "error", err)
		return failed(KindDirectoryCreate, m.printer.Sprintf(i18n.UploadDirectoryFailed))
	}

	filename := fmt.Sprintf("user_%d_%s%s", userID, m.token(), extensionFor(mime))
	dst := filepath.Join(m.cfg.AvatarDir, filename)
	box := m.cfg.StorageSizes[config.SizeMedium]
	if err := media.Resize(f.TempPath, dst, box.Width, box.Height, m.cfg.Quality); err != nil {
		m.logger.Error("avatar processing failed", "user_id", userID, "filename", filename, "error", err)
		if errors.Is(err, media.ErrUnsupportedImageType) {
			return failed(KindUnsupportedImage, m.printer.Sprintf(i18n.UploadUnsupportedImage))
		}
		return failed(KindProcessingFailed, m.printer.Sprintf(i18n.UploadProcessingFailed))
	}

	m.logger.Info("avatar stored", "user_id", userID, "filename", filename)
	return Result{
		Success:   true,
		Filename:  filename,
		Filepath:  dst,
		PublicURL: m.publicURL(filename),
		Message:   m.printer.Sprintf(i18n.UploadSucceeded),
	}
}

// Delete removes a stored avatar. Empty names and the shared placeholder are
// a no-op; a file that is already gone counts as deleted. Cached derived
// sizes are left in place.
func (m *Manager) Delete(filename string) bool {
	filename = strings.TrimSpace(filename)
	if filename == "" || filename == DefaultFilename {
		return true
	}
	if !isPlainName(filename) {
		m.logger.Warn("avatar delete refused", "filename", filename)
		return false
	}
	if err := os.Remove(filepath.Join(m.cfg.AvatarDir, filename)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true
		}
		m.logger.Error("avatar delete failed", "filename", filename, "error", err)
		return false
	}
	return true
}

func (m *Manager) publicURL(filename string) string {
	return m.cfg.PublicURL + "/" + url.PathEscape(filename)
}

func (m *Manager) cacheURL(filename string) string {
	return m.cfg.CacheURL + "/" + url.PathEscape(filename)
}

// ensureDir creates dir, tolerating a concurrent creator.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", errDirectoryCreate, dir, err)
	}
	return nil
}

// isPlainName reports whether name is a single path element.
func isPlainName(name string) bool {
	return name != "." && name != ".." && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

func extensionFor(mime string) string {
	if format, ok := media.FormatFromMIME(mime); ok {
		return format.Extension()
	}
	return ".jpg"
}

// megabytes renders a byte count in MB with at most two decimals.
func megabytes(n int64) string {
	mb := float64(n) / (1024 * 1024)
	return strconv.FormatFloat(math.Round(mb*100)/100, 'f', -1, 64)
}
