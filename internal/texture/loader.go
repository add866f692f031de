// Package texture decodes base images (including MU OZJ/OZT wrappers) and
// resizes them to mask resolution.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// Extensions lists the file extensions LoadImage understands.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tga", ".webp", ".ozj", ".ozt"}

// Supported reports whether path has a decodable extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadImage reads and decodes an image file into NRGBA.
func LoadImage(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	img, err := Decode(raw, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("texture: %s: %w", path, err)
	}
	return img, nil
}

// Decode decodes raw image bytes. ext selects the MU wrappers: OZJ carries
// a 24-byte header before JPEG data, OZT a 4-byte header before TGA data.
// Other formats are detected from their magic bytes.
func Decode(raw []byte, ext string) (*image.NRGBA, error) {
	imgData := raw
	ext = strings.ToLower(ext)
	switch ext {
	case ".ozj":
		if len(raw) <= 24 {
			return nil, fmt.Errorf("OZJ too short")
		}
		imgData = raw[24:]
	case ".ozt":
		if len(raw) <= 4 {
			return nil, fmt.Errorf("OZT too short")
		}
		imgData = raw[4:]
	}

	decode, name := decoderFor(imgData, ext)
	if decode == nil {
		return nil, fmt.Errorf("decode: unknown image format")
	}
	img, err := decode(bytes.NewReader(imgData))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return toNRGBA(img), nil
}

// decoderFor picks a decoder by magic bytes. tga registers itself with an
// empty magic and would claim every file through image.Decode, so TGA is
// only chosen by extension.
func decoderFor(data []byte, ext string) (func(io.Reader) (image.Image, error), string) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return png.Decode, "png"
	case bytes.HasPrefix(data, []byte{0xff, 0xd8}):
		return jpeg.Decode, "jpeg"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return gif.Decode, "gif"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return webp.Decode, "webp"
	case bytes.HasPrefix(data, []byte("BM")):
		return bmp.Decode, "bmp"
	case ext == ".tga" || ext == ".ozt":
		return tga.Decode, "tga"
	}
	return nil, ""
}

// toNRGBA converts any image to an NRGBA with origin (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// ResizeTo scales img to exactly w x h with CatmullRom filtering. An image
// already at that size is returned as is.
func ResizeTo(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Solid returns a w x h image filled with c.
func Solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// LoadBaseOrWhite loads path resized to w x h. An empty path or a file
// that cannot be decoded yields opaque white; the error is still returned
// so callers can log it.
func LoadBaseOrWhite(path string, w, h int) (*image.NRGBA, error) {
	white := color.NRGBA{255, 255, 255, 255}
	if path == "" {
		return Solid(w, h, white), nil
	}
	img, err := LoadImage(path)
	if err != nil {
		return Solid(w, h, white), err
	}
	return ResizeTo(img, w, h), nil
}
