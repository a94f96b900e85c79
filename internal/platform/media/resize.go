package media

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is used when a caller passes a quality outside 1..100.
const DefaultQuality = 85

// Resize fits the image at srcPath into maxW×maxH and writes it to dstPath
// in the source format. Nothing is cropped.
func Resize(srcPath, dstPath string, maxW, maxH, quality int) error {
	src, format, err := Decode(srcPath)
	if err != nil {
		return err
	}
	bounds := src.Bounds()
	w, h := FitSize(bounds.Dx(), bounds.Dy(), maxW, maxH)
	return Save(scale(src, bounds, w, h), dstPath, format, quality)
}

// Thumbnail resizes the image at srcPath following p and writes it to dstPath
// in the source format.
func Thumbnail(srcPath, dstPath string, p Policy, quality int) error {
	if !p.Valid() {
		return fmt.Errorf("invalid thumbnail size %dx%d", p.Width, p.Height)
	}
	src, format, err := Decode(srcPath)
	if err != nil {
		return err
	}
	bounds := src.Bounds()
	rect, w, h := ThumbnailGeometry(bounds.Dx(), bounds.Dy(), p)
	return Save(scale(src, rect.Add(bounds.Min), w, h), dstPath, format, quality)
}

// Decode reads the image at path. Sources whose content is not one of the
// supported formats fail with ErrUnsupportedImageType.
func Decode(path string) (image.Image, Format, error) {
	mime, err := DetectMIME(path)
	if err != nil {
		return nil, "", err
	}
	format, ok := FormatFromMIME(mime)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedImageType, mime)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImageType, err)
		}
		return nil, "", fmt.Errorf("decode %s: %w", format, err)
	}
	return img, format, nil
}

// scale resamples the sr region of src onto a transparent w×h canvas.
func scale(src image.Image, sr image.Rectangle, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, sr, draw.Src, nil)
	return dst
}

// Save encodes img as format and atomically places it at dstPath.
func Save(img image.Image, dstPath string, format Format, quality int) error {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	dir := filepath.Dir(dstPath)
	if format == FormatWebP {
		return saveWebP(img, dstPath, quality)
	}
	tmp, err := os.CreateTemp(dir, ".tmp_*"+format.Extension())
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := encode(tmp, img, format, quality); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func encode(w io.Writer, img image.Image, format Format, quality int) error {
	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: PNGCompression(quality)}
		return enc.Encode(w, img)
	case FormatGIF:
		return gif.Encode(w, paletted(img), nil)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedImageType, format)
	}
}

// saveWebP writes a lossless PNG intermediate and hands it to cwebp.
func saveWebP(img image.Image, dstPath string, quality int) error {
	dir := filepath.Dir(dstPath)
	tmpPNG, err := os.CreateTemp(dir, ".tmp_*.png")
	if err != nil {
		return err
	}
	tmpPNGPath := tmpPNG.Name()
	defer func() {
		_ = os.Remove(tmpPNGPath)
	}()
	if err := png.Encode(tmpPNG, img); err != nil {
		_ = tmpPNG.Close()
		return err
	}
	if err := tmpPNG.Close(); err != nil {
		return err
	}
	tmpOutput := tmpPNGPath + ".webp"
	if err := EncodeWebP(tmpPNGPath, tmpOutput, quality); err != nil {
		_ = os.Remove(tmpOutput)
		if errors.Is(err, ErrCWebPUnavailable) {
			return fmt.Errorf("%w: %w", ErrUnsupportedImageType, err)
		}
		return err
	}
	if err := os.Rename(tmpOutput, dstPath); err != nil {
		_ = os.Remove(tmpOutput)
		return err
	}
	return nil
}

// PNGCompression maps a 0..100 quality onto a zlib effort level: the higher
// the quality, the less time spent compressing.
func PNGCompression(quality int) png.CompressionLevel {
	level := 9 - int(math.Round(float64(quality)*9/100))
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// paletted quantizes img for GIF output, reserving index 0 for transparency.
func paletted(img image.Image) *image.Paletted {
	pal := make(color.Palette, 0, 256)
	pal = append(pal, color.Transparent)
	pal = append(pal, palette.Plan9[:255]...)
	dst := image.NewPaletted(img.Bounds(), pal)
	draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, img.Bounds().Min)
	return dst
}
