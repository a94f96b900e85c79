package media

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrCWebPUnavailable indicates cwebp is missing from PATH.
var ErrCWebPUnavailable = errors.New("cwebp not available for WebP encoding")

// CWebPAvailable reports whether the cwebp encoder is on PATH.
func CWebPAvailable() bool {
	_, err := exec.LookPath("cwebp")
	return err == nil
}

// EncodeWebP converts inputPath to WebP at outputPath using cwebp. A quality
// of zero leaves the encoder default.
func EncodeWebP(inputPath, outputPath string, quality int) error {
	cwebpPath, err := exec.LookPath("cwebp")
	if err != nil {
		return ErrCWebPUnavailable
	}
	args := []string{"-quiet"}
	if quality > 0 {
		args = append(args, "-q", strconv.Itoa(quality))
	}
	args = append(args, inputPath, "-o", outputPath)
	cmd := exec.Command(cwebpPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		details := strings.TrimSpace(string(output))
		if details != "" {
			return fmt.Errorf("cwebp failed: %w: %s", err, details)
		}
		return fmt.Errorf("cwebp failed: %w", err)
	}
	return nil
}
