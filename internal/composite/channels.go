package composite

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"uv-mask-maker/internal/raster"
	"uv-mask-maker/internal/uv"
)

// ChannelSet selects which RGBA channels a composite may overwrite.
type ChannelSet struct {
	R, G, B, A bool
}

// ParseChannels reads a channel list such as "rg" or "rgba". Case and
// order are ignored.
func ParseChannels(s string) (ChannelSet, error) {
	var ch ChannelSet
	for _, c := range strings.ToLower(s) {
		switch c {
		case 'r':
			ch.R = true
		case 'g':
			ch.G = true
		case 'b':
			ch.B = true
		case 'a':
			ch.A = true
		default:
			return ChannelSet{}, fmt.Errorf("composite: unknown channel %q in %q", c, s)
		}
	}
	return ch, nil
}

// String returns the flagged channels as lowercase letters.
func (c ChannelSet) String() string {
	var b strings.Builder
	for _, f := range []struct {
		on bool
		s  string
	}{{c.R, "r"}, {c.G, "g"}, {c.B, "b"}, {c.A, "a"}} {
		if f.on {
			b.WriteString(f.s)
		}
	}
	return b.String()
}

// Any reports whether at least one channel is flagged.
func (c ChannelSet) Any() bool {
	return c.R || c.G || c.B || c.A
}

var (
	white = color.NRGBA{255, 255, 255, 255}
	black = color.NRGBA{0, 0, 0, 255}
)

// imageRow maps a mask row (v up) to an image row (y down).
func imageRow(m *Mask, y int) int {
	return m.Height - 1 - y
}

// paint writes fn(on) for every mask pixel into a new image.
func paint(m *Mask, fn func(on bool) color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		row := y * m.Width
		iy := imageRow(m, y)
		for x := 0; x < m.Width; x++ {
			c := fn(m.Pix[row+x])
			i := img.PixOffset(x, iy)
			img.Pix[i] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
	return img
}

// Flat renders selected pixels black and the rest white, fully opaque.
func Flat(m *Mask) *image.NRGBA {
	return paint(m, func(on bool) color.NRGBA {
		if on {
			return black
		}
		return white
	})
}

// applyChannels applies the channel rule to one color. When keepOff is set,
// unselected colors are returned untouched.
func applyChannels(c color.NRGBA, on bool, ch ChannelSet, keepOff bool) color.NRGBA {
	if keepOff && !on {
		return c
	}
	var rgb, a uint8 = 255, 0
	if on {
		rgb, a = 0, 255
	}
	if ch.R {
		c.R = rgb
	}
	if ch.G {
		c.G = rgb
	}
	if ch.B {
		c.B = rgb
	}
	if ch.A {
		c.A = a
	}
	return c
}

// ChannelWise writes the mask into the flagged channels.
//
// With a base image only selected pixels change: flagged color channels
// become 0 and a flagged alpha becomes 255. Without a base, every pixel
// starts opaque white and flagged color channels carry 0 (selected) or 255,
// while a flagged alpha carries 255 (selected) or 0.
//
// The base must match the mask size and is never modified.
func ChannelWise(m *Mask, ch ChannelSet, base *image.NRGBA) (*image.NRGBA, error) {
	if base == nil {
		return paint(m, func(on bool) color.NRGBA {
			return applyChannels(white, on, ch, false)
		}), nil
	}

	b := base.Bounds()
	if b.Dx() != m.Width || b.Dy() != m.Height {
		return nil, fmt.Errorf("composite: base %dx%d, mask %dx%d: %w",
			b.Dx(), b.Dy(), m.Width, m.Height, ErrBaseSizeMismatch)
	}
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		iy := imageRow(m, y)
		for x := 0; x < m.Width; x++ {
			c := base.NRGBAAt(b.Min.X+x, b.Min.Y+iy)
			out.SetNRGBA(x, iy, applyChannels(c, m.Pix[y*m.Width+x], ch, true))
		}
	}
	return out, nil
}

// Options configures Compose.
type Options struct {
	Margin int

	// ChannelWrite selects the channel-wise regime. When false the output
	// is the flat black-on-white mask and Channels and Base are ignored.
	ChannelWrite bool
	Channels     ChannelSet
	Base         *image.NRGBA
}

// Compose builds the mask for sel and renders it as configured.
func Compose(lm *raster.LabelMap, sel *uv.Selection, opts Options) (*image.NRGBA, error) {
	m, err := BuildMask(lm, sel, opts.Margin)
	if err != nil {
		return nil, err
	}
	if !opts.ChannelWrite {
		return Flat(m), nil
	}
	return ChannelWise(m, opts.Channels, opts.Base)
}
