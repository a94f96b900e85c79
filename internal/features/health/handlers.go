package health

import (
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"

	"bookclub/internal/features/avatar"
	"bookclub/internal/platform/core"
	"bookclub/internal/platform/media"
)

// Status is the body of /health/images.
type Status struct {
	CWebP    bool `json:"cwebp"`
	Font     bool `json:"font"`
	ResizeOK bool `json:"resize_ok"`
}

type Handler struct {
	cacheDir string
	fontPath string
}

// NewHandler builds a health handler; probe files are written under cacheDir.
func NewHandler(cacheDir, fontPath string) Handler {
	return Handler{cacheDir: cacheDir, fontPath: fontPath}
}

// ImageHealth reports availability of image processing utilities.
func (h Handler) ImageHealth(w http.ResponseWriter, _ *http.Request) {
	core.WriteJSON(w, h.Check())
}

// Check runs every probe.
func (h Handler) Check() Status {
	status := Status{CWebP: media.CWebPAvailable()}
	if face, err := avatar.LoadFace(h.fontPath, 12); err == nil {
		status.Font = true
		_ = face.Close()
	}
	status.ResizeOK = h.resizeRoundTrip()
	return status
}

// resizeRoundTrip pushes a 1x1 PNG through the thumbnail pipeline.
func (h Handler) resizeRoundTrip() bool {
	if err := os.MkdirAll(h.cacheDir, 0755); err != nil {
		return false
	}
	input := filepath.Join(h.cacheDir, "health_input.png")
	output := filepath.Join(h.cacheDir, "health_output.png")
	defer os.Remove(input)
	defer os.Remove(output)

	f, err := os.Create(input)
	if err != nil {
		return false
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	encodeErr := png.Encode(f, img)
	if closeErr := f.Close(); encodeErr != nil || closeErr != nil {
		return false
	}
	if err := media.Thumbnail(input, output, media.Policy{Width: 2, Height: 2, Crop: true}, media.DefaultQuality); err != nil {
		return false
	}
	_, err = os.Stat(output)
	return err == nil
}
