package media

import (
	"errors"
	"io"
	"net/http"
	"os"
)

// Format names a raster encoding; values match the names used by image.Decode.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
)

// ErrUnsupportedImageType indicates the source cannot be decoded or re-encoded.
var ErrUnsupportedImageType = errors.New("unsupported image type")

// DetectMIME sniffs the content type of the file at path from its leading bytes.
func DetectMIME(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

// FormatFromMIME maps a sniffed MIME type to a Format.
func FormatFromMIME(mime string) (Format, bool) {
	switch mime {
	case "image/jpeg":
		return FormatJPEG, true
	case "image/png":
		return FormatPNG, true
	case "image/gif":
		return FormatGIF, true
	case "image/webp":
		return FormatWebP, true
	default:
		return "", false
	}
}

// Extension returns the file extension, with dot, used for f.
func (f Format) Extension() string {
	switch f {
	case FormatPNG:
		return ".png"
	case FormatGIF:
		return ".gif"
	case FormatWebP:
		return ".webp"
	default:
		return ".jpg"
	}
}
