package config

import (
	"errors"
	"fmt"
	"image/color"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"bookclub/internal/platform/core"
	"bookclub/internal/platform/media"
)

// Size names shared by avatar storage and the thumbnail cache.
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

// Config holds runtime settings loaded from environment variables.
type Config struct {
	Env              string   `env:"BOOKCLUB_ENV" envDefault:"development"`
	SecretKey        string   `env:"BOOKCLUB_SECRET_KEY"`
	DBPath           string   `env:"BOOKCLUB_DB_PATH"`
	StaticDir        string   `env:"BOOKCLUB_STATIC_DIR"`
	UploadsDir       string   `env:"BOOKCLUB_UPLOADS_DIR"`
	PublicPath       string   `env:"BOOKCLUB_PUBLIC_PATH" envDefault:"/uploads"`
	DefaultAvatarURL string   `env:"BOOKCLUB_DEFAULT_AVATAR_URL" envDefault:"/static/img/default.png"`
	AllowedTypes     []string `env:"BOOKCLUB_ALLOWED_TYPES" envSeparator:"," envDefault:"image/jpeg,image/png,image/gif"`
	MaxSize          int64    `env:"BOOKCLUB_MAX_SIZE" envDefault:"2097152"`
	Quality          int      `env:"BOOKCLUB_DEFAULT_QUALITY" envDefault:"85"`
	Locale           string   `env:"BOOKCLUB_LOCALE" envDefault:"en-US"`
	FontPath         string   `env:"BOOKCLUB_FONT_PATH"`
	DefaultWidth     int      `env:"BOOKCLUB_DEFAULT_AVATAR_WIDTH" envDefault:"200"`
	DefaultHeight    int      `env:"BOOKCLUB_DEFAULT_AVATAR_HEIGHT" envDefault:"200"`
	DefaultBgColor   string   `env:"BOOKCLUB_DEFAULT_AVATAR_BG" envDefault:"#4a6fa5"`
	DefaultTextColor string   `env:"BOOKCLUB_DEFAULT_AVATAR_TEXT" envDefault:"#ffffff"`
	SizesFile        string   `env:"BOOKCLUB_SIZES_FILE"`
	Host             string   `env:"BOOKCLUB_HOST" envDefault:"127.0.0.1"`
	Port             string   `env:"BOOKCLUB_PORT" envDefault:"5000"`
	SameSite         string   `env:"BOOKCLUB_COOKIE_SAMESITE" envDefault:"lax"`
	CookieSecure     bool     `env:"BOOKCLUB_COOKIE_SECURE"`
	DisableCSRF      bool     `env:"BOOKCLUB_DISABLE_CSRF"`
	LogLevel         string   `env:"BOOKCLUB_LOG_LEVEL" envDefault:"info"`

	IsProd         bool                    `env:"-"`
	CookieSameSite http.SameSite           `env:"-"`
	AvatarDir      string                  `env:"-"`
	AvatarCacheDir string                  `env:"-"`
	BgColor        color.RGBA              `env:"-"`
	TextColor      color.RGBA              `env:"-"`
	AvatarSizes    map[string]media.Policy `env:"-"`
	ThumbnailSizes map[string]media.Policy `env:"-"`
}

// SizeTables is the YAML layout of BOOKCLUB_SIZES_FILE. Entries override the
// built-in defaults by name.
type SizeTables struct {
	Avatar     map[string]media.Policy `yaml:"avatar"`
	Thumbnails map[string]media.Policy `yaml:"thumbnails"`
}

// DefaultAvatarSizes returns the fit-within boxes used for canonical storage.
func DefaultAvatarSizes() map[string]media.Policy {
	return map[string]media.Policy{
		SizeSmall:  {Width: 100, Height: 100},
		SizeMedium: {Width: 300, Height: 300},
		SizeLarge:  {Width: 600, Height: 600},
	}
}

// DefaultThumbnailSizes returns the policies used by the derived-image cache.
func DefaultThumbnailSizes() map[string]media.Policy {
	return map[string]media.Policy{
		SizeSmall:  {Width: 50, Height: 50, Crop: true},
		SizeMedium: {Width: 150, Height: 150, Crop: true},
		SizeLarge:  {Width: 300, Height: 300, Crop: true},
	}
}

// LoadConfig reads environment variables, applies defaults, and validates required settings.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.IsProd = cfg.Env == "production"

	if cfg.SecretKey == "" && cfg.IsProd {
		return Config{}, errors.New("BOOKCLUB_SECRET_KEY is required in production")
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = core.RandomToken(32)
	}
	if _, ok := os.LookupEnv("BOOKCLUB_COOKIE_SECURE"); !ok {
		cfg.CookieSecure = cfg.IsProd
	}
	if _, ok := os.LookupEnv("BOOKCLUB_DISABLE_CSRF"); !ok {
		cfg.DisableCSRF = !cfg.IsProd
	}

	cfg.CookieSameSite = http.SameSiteLaxMode
	switch strings.ToLower(cfg.SameSite) {
	case "strict":
		cfg.CookieSameSite = http.SameSiteStrictMode
	case "none":
		cfg.CookieSameSite = http.SameSiteNoneMode
	}

	base := getBaseDir()
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(base, "bookclub.db")
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = filepath.Join(base, "static")
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = filepath.Join(base, "static", "uploads")
	}
	cfg.AvatarDir = filepath.Join(cfg.UploadsDir, "avatars")
	cfg.AvatarCacheDir = filepath.Join(cfg.UploadsDir, "cache", "avatars")
	cfg.PublicPath = "/" + strings.Trim(cfg.PublicPath, "/")

	if cfg.MaxSize <= 0 {
		return Config{}, fmt.Errorf("BOOKCLUB_MAX_SIZE must be positive, got %d", cfg.MaxSize)
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		return Config{}, fmt.Errorf("BOOKCLUB_DEFAULT_QUALITY must be between 1 and 100, got %d", cfg.Quality)
	}
	if cfg.DefaultWidth <= 0 || cfg.DefaultHeight <= 0 {
		return Config{}, fmt.Errorf("default avatar size must be positive, got %dx%d", cfg.DefaultWidth, cfg.DefaultHeight)
	}
	var err error
	if cfg.BgColor, err = ParseHexColor(cfg.DefaultBgColor); err != nil {
		return Config{}, fmt.Errorf("BOOKCLUB_DEFAULT_AVATAR_BG: %w", err)
	}
	if cfg.TextColor, err = ParseHexColor(cfg.DefaultTextColor); err != nil {
		return Config{}, fmt.Errorf("BOOKCLUB_DEFAULT_AVATAR_TEXT: %w", err)
	}
	for i, t := range cfg.AllowedTypes {
		cfg.AllowedTypes[i] = strings.ToLower(strings.TrimSpace(t))
	}

	cfg.AvatarSizes = DefaultAvatarSizes()
	cfg.ThumbnailSizes = DefaultThumbnailSizes()
	if cfg.SizesFile != "" {
		tables, err := LoadSizeTables(cfg.SizesFile)
		if err != nil {
			return Config{}, err
		}
		for name, p := range tables.Avatar {
			cfg.AvatarSizes[name] = p
		}
		for name, p := range tables.Thumbnails {
			cfg.ThumbnailSizes[name] = p
		}
	}
	return cfg, nil
}

// LoadSizeTables reads and validates a YAML size-policy file.
func LoadSizeTables(path string) (SizeTables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SizeTables{}, fmt.Errorf("failed to read sizes file %s: %w", path, err)
	}
	var tables SizeTables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return SizeTables{}, fmt.Errorf("failed to parse sizes file %s: %w", path, err)
	}
	if err := validateSizes("avatar", tables.Avatar); err != nil {
		return SizeTables{}, err
	}
	if err := validateSizes("thumbnails", tables.Thumbnails); err != nil {
		return SizeTables{}, err
	}
	return tables, nil
}

func validateSizes(table string, sizes map[string]media.Policy) error {
	for name, p := range sizes {
		switch name {
		case SizeSmall, SizeMedium, SizeLarge:
		default:
			return fmt.Errorf("%s: unknown size %q", table, name)
		}
		if !p.Valid() {
			return fmt.Errorf("%s.%s: width and height must be positive, got %dx%d", table, name, p.Width, p.Height)
		}
	}
	return nil
}

// ParseHexColor parses #rgb or #rrggbb into an opaque color.
func ParseHexColor(raw string) (color.RGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", raw)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", raw)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// getBaseDir returns the working directory or executable directory as a fallback.
func getBaseDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
