package avatar

import (
	"os"
	"path/filepath"
	"strings"

	"bookclub/internal/platform/media"
)

// URL resolves the public URL of filename at the named size. Missing files
// resolve to the default avatar URL; "original" and unknown sizes resolve to
// the canonical file. Derived sizes are generated into the cache directory
// on first request and reused afterwards. A generation failure falls back to
// the canonical URL.
func (m *Manager) URL(filename, size string) string {
	filename = strings.TrimSpace(filename)
	if filename == "" || !isPlainName(filename) {
		return m.cfg.DefaultURL
	}
	source := filepath.Join(m.cfg.AvatarDir, filename)
	if _, err := os.Stat(source); err != nil {
		return m.cfg.DefaultURL
	}
	if size == SizeOriginal {
		return m.publicURL(filename)
	}
	policy, ok := m.cfg.ThumbnailSizes[size]
	if !ok {
		return m.publicURL(filename)
	}

	cacheName := CacheFilename(filename, size)
	cachePath := filepath.Join(m.cfg.CacheDir, cacheName)
	if _, err := os.Stat(cachePath); err == nil {
		return m.cacheURL(cacheName)
	}
	if err := ensureDir(m.cfg.CacheDir); err != nil {
		m.logger.Warn("avatar cache directory unavailable", "error", err)
		return m.publicURL(filename)
	}
	if err := media.Thumbnail(source, cachePath, policy, m.cfg.Quality); err != nil {
		m.logger.Warn("avatar thumbnail failed", "filename", filename, "size", size, "error", err)
		return m.publicURL(filename)
	}
	return m.cacheURL(cacheName)
}

// CacheFilename names the derived file for size: <base>_<size>.<ext>.
func CacheFilename(filename, size string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "_" + size + ext
}
