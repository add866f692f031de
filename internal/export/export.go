// Package export encodes mask images to PNG or lossless WebP and picks
// output paths.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// ErrUnsupportedFormat is returned for output formats other than png and webp.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatOf returns "png" or "webp" for a file path, defaulting to png.
func FormatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return "webp"
	}
	return "png"
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	if format == "webp" {
		return "image/webp"
	}
	return "image/png"
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "", "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	case "webp":
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("export: %q: %w", format, ErrUnsupportedFormat)
	}
}

// WriteImage encodes img to path, creating parent directories. The format
// follows the extension. A partially written file is removed on error.
func WriteImage(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := Encode(f, img, FormatOf(path)); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("export: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}

// OutputPath joins dir, name and the format extension.
func OutputPath(dir, name, format string) string {
	if format == "" {
		format = "png"
	}
	return filepath.Join(dir, name+"."+format)
}

// UniquePath returns path if nothing exists there, otherwise the first free
// "name_N.ext" variant.
func UniquePath(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		p := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return p
		}
	}
}

// Target resolves the final path for a save: UniquePath unless overwrite.
func Target(path string, overwrite bool) string {
	if overwrite {
		return path
	}
	return UniquePath(path)
}
