package config

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"
)

// ParseHexColor parses #rgb, #rrggbb or #rrggbbaa (the # is optional).
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("config: bad color %q", s)
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("config: bad color %q: %w", s, err)
	}
	return color.NRGBA{b[0], b[1], b[2], b[3]}, nil
}

// FormatHexColor renders c as #rrggbb, or #rrggbbaa when not opaque.
func FormatHexColor(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
