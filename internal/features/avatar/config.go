package avatar

import (
	"image/color"

	"bookclub/internal/config"
	"bookclub/internal/platform/media"
)

// SizeOriginal selects the canonical stored file in URL.
const SizeOriginal = "original"

// DefaultFilename is the shared placeholder; it is never removed from disk.
const DefaultFilename = "default.png"

// Config is owned by a Manager and treated as read-only.
type Config struct {
	AvatarDir      string
	CacheDir       string
	PublicURL      string
	CacheURL       string
	DefaultURL     string
	AllowedTypes   []string
	MaxSize        int64
	StorageSizes   map[string]media.Policy
	ThumbnailSizes map[string]media.Policy
	Quality        int
	Placeholder    Placeholder
}

// Placeholder describes the look of generated initials avatars.
type Placeholder struct {
	Width      int
	Height     int
	Background color.RGBA
	Text       color.RGBA
	FontPath   string
}

// ConfigFrom maps application settings onto the manager configuration.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		AvatarDir:      cfg.AvatarDir,
		CacheDir:       cfg.AvatarCacheDir,
		PublicURL:      cfg.PublicPath + "/avatars",
		CacheURL:       cfg.PublicPath + "/cache/avatars",
		DefaultURL:     cfg.DefaultAvatarURL,
		AllowedTypes:   cfg.AllowedTypes,
		MaxSize:        cfg.MaxSize,
		StorageSizes:   cfg.AvatarSizes,
		ThumbnailSizes: cfg.ThumbnailSizes,
		Quality:        cfg.Quality,
		Placeholder: Placeholder{
			Width:      cfg.DefaultWidth,
			Height:     cfg.DefaultHeight,
			Background: cfg.BgColor,
			Text:       cfg.TextColor,
			FontPath:   cfg.FontPath,
		},
	}
}
