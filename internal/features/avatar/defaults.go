package avatar

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"bookclub/internal/platform/core"
	"bookclub/internal/platform/i18n"
	"bookclub/internal/platform/media"
)

// DefaultInitial is drawn when a username yields no letters.
const DefaultInitial = "?"

const (
	maxInitials    = 2
	fontScale      = 0.4
	bitmapCoverage = 0.6
)

var errNoFont = errors.New("no font configured")

// Initials returns the uppercased first rune of each whitespace-separated
// word, at most two of them.
func Initials(username string) string {
	runes := make([]rune, 0, maxInitials)
	for _, word := range strings.Fields(username) {
		r, _ := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError {
			continue
		}
		runes = append(runes, unicode.ToUpper(r))
		if len(runes) == maxInitials {
			break
		}
	}
	if len(runes) == 0 {
		return DefaultInitial
	}
	return string(runes)
}

// GenerateDefault renders an initials avatar for the user as a PNG in the
// avatar directory. On failure the result carries the static default URL.
func (m *Manager) GenerateDefault(username string, userID int) Result {
	initials := Initials(username)
	fallback := Result{
		Kind:      KindProcessingFailed,
		PublicURL: m.cfg.DefaultURL,
		Message:   m.printer.Sprintf(i18n.DefaultGenerationFailed),
	}
	if err := ensureDir(m.cfg.AvatarDir); err != nil {
		m.logger.Error("default avatar directory unavailable", "user_id", userID, "error", err)
		fallback.Kind = KindDirectoryCreate
		return fallback
	}

	stamp := m.now().UTC().Format(time.RFC3339Nano)
	filename := fmt.Sprintf("default_%d_%s.png", userID, core.ShortHash(initials+stamp, 12))
	path := filepath.Join(m.cfg.AvatarDir, filename)

	img := m.renderInitials(initials)
	if err := media.Save(img, path, media.FormatPNG, m.cfg.Quality); err != nil {
		_ = os.Remove(path)
		m.logger.Error("default avatar generation failed", "user_id", userID, "filename", filename, "error", err)
		return fallback
	}
	if _, err := os.Stat(path); err != nil {
		m.logger.Error("default avatar missing after write", "user_id", userID, "filename", filename, "error", err)
		return fallback
	}

	return Result{
		Success:   true,
		Filename:  filename,
		Filepath:  path,
		PublicURL: m.publicURL(filename),
		Message:   m.printer.Sprintf(i18n.DefaultGenerated),
	}
}

func (m *Manager) renderInitials(initials string) *image.RGBA {
	p := m.cfg.Placeholder
	canvas := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(p.Background), image.Point{}, draw.Src)

	face, err := LoadFace(p.FontPath, fontScale*float64(p.Width))
	if err != nil {
		if !errors.Is(err, errNoFont) {
			m.logger.Warn("avatar font unavailable, using bitmap face", "path", p.FontPath, "error", err)
		}
		drawBitmap(canvas, initials, p.Text)
		return canvas
	}
	defer face.Close()
	drawCentered(canvas, face, initials, p.Text)
	return canvas
}

// LoadFace parses the TrueType or OpenType font at path at the given size in
// points (72 DPI, so points equal pixels).
func LoadFace(path string, size float64) (font.Face, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errNoFont
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// drawCentered centres text on dst using its measured ink bounds.
func drawCentered(dst draw.Image, face font.Face, text string, c color.Color) {
	bounds, _ := font.BoundString(face, text)
	size := dst.Bounds().Size()
	inkW := bounds.Max.X - bounds.Min.X
	inkH := bounds.Max.Y - bounds.Min.Y
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: (fixed.I(size.X)-inkW)/2 - bounds.Min.X,
			Y: (fixed.I(size.Y)-inkH)/2 - bounds.Min.Y,
		},
	}
	d.DrawString(text)
}

// drawBitmap renders text with the built-in 7x13 face and scales it up to
// cover most of dst.
func drawBitmap(dst *image.RGBA, text string, c color.Color) {
	face := basicfont.Face7x13
	advance := font.MeasureString(face, text).Ceil()
	if advance <= 0 {
		return
	}
	glyphs := image.NewRGBA(image.Rect(0, 0, advance, face.Height))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	size := dst.Bounds().Size()
	ratio := math.Min(
		float64(size.X)*bitmapCoverage/float64(advance),
		float64(size.Y)*bitmapCoverage/float64(face.Height),
	)
	w := max(1, int(float64(advance)*ratio))
	h := max(1, int(float64(face.Height)*ratio))
	x := (size.X - w) / 2
	y := (size.Y - h) / 2
	draw.NearestNeighbor.Scale(dst, image.Rect(x, y, x+w, y+h), glyphs, glyphs.Bounds(), draw.Over, nil)
}
