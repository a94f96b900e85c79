package avatar

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"bookclub/internal/config"
	"bookclub/internal/platform/i18n"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	root := t.TempDir()
	return Config{
		AvatarDir:      filepath.Join(root, "avatars"),
		CacheDir:       filepath.Join(root, "cache", "avatars"),
		PublicURL:      "/uploads/avatars",
		CacheURL:       "/uploads/cache/avatars",
		DefaultURL:     "/static/img/default.png",
		AllowedTypes:   []string{"image/jpeg", "image/png", "image/gif"},
		MaxSize:        2 << 20,
		StorageSizes:   config.DefaultAvatarSizes(),
		ThumbnailSizes: config.DefaultThumbnailSizes(),
		Quality:        85,
		Placeholder: Placeholder{
			Width:      120,
			Height:     120,
			Background: color.RGBA{R: 0x4a, G: 0x6f, B: 0xa5, A: 0xff},
			Text:       color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		},
	}
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m := NewManager(cfg, i18n.Printer("en-US"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.token = func() string { return "token" }
	return m
}

func encodeImage(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

// writeUpload stores data in a temp file and returns the matching File.
func writeUpload(t *testing.T, data []byte) File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.bin")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	return File{TempPath: path, Size: int64(len(data))}
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func decodeFile(t *testing.T, path string) (image.Image, string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img, format
}
