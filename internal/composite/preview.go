package composite

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"uv-mask-maker/internal/uv"
)

// Preview renders selected pixels in fill and the rest white.
func Preview(m *Mask, fill color.NRGBA) *image.NRGBA {
	return paint(m, func(on bool) color.NRGBA {
		if on {
			return fill
		}
		return white
	})
}

// Overlay renders selected pixels in fill at the given opacity (0..1) and
// leaves the rest transparent.
func Overlay(m *Mask, fill color.NRGBA, alpha float64) *image.NRGBA {
	fill.A = uint8(math.Round(math.Max(0, math.Min(1, alpha)) * 255))
	return paint(m, func(on bool) color.NRGBA {
		if on {
			return fill
		}
		return color.NRGBA{}
	})
}

// OverlayOnto alpha-composites overlay over a copy of base. The overlay is
// scaled to the base size when they differ.
func OverlayOnto(base, overlay *image.NRGBA) *image.NRGBA {
	b := base.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), base, b.Min, draw.Src)
	if overlay.Bounds().Size() == out.Bounds().Size() {
		draw.Draw(out, out.Bounds(), overlay, overlay.Bounds().Min, draw.Over)
	} else {
		draw.NearestNeighbor.Scale(out, out.Bounds(), overlay, overlay.Bounds(), draw.Over, nil)
	}
	return out
}

// SeamStyle configures DrawSeams.
type SeamStyle struct {
	Color color.NRGBA
	Width float64
	Frame bool // also outline the 0..1 UV square
}

// DefaultSeamStyle is a thin opaque red line with the UV frame.
var DefaultSeamStyle = SeamStyle{Color: color.NRGBA{220, 40, 40, 255}, Width: 1, Frame: true}

// DrawSeams strokes the UV border edges of a onto a copy of img, using the
// same UV to pixel mapping as the label map.
func DrawSeams(img *image.NRGBA, a *uv.Analysis, style SeamStyle) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h := float64(b.Dx()-1), float64(b.Dy()-1)
	toPixel := func(p [2]float32) (float64, float64) {
		u := math.Max(0, math.Min(1, float64(p[0])))
		v := math.Max(0, math.Min(1, float64(p[1])))
		return u * w, (1 - v) * h
	}

	dc := gg.NewContextForImage(img)
	defer dc.Close()
	dc.SetColor(style.Color)
	dc.SetLineWidth(math.Max(style.Width, 0.5))

	for _, e := range a.BorderEdges {
		x0, y0 := toPixel(a.UVs[e.V0])
		x1, y1 := toPixel(a.UVs[e.V1])
		dc.DrawLine(x0, y0, x1, y1)
	}
	if style.Frame {
		dc.DrawRectangle(0, 0, w, h)
	}
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("composite: stroke seams: %w", err)
	}

	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), dc.Image(), image.Point{}, draw.Src)
	return out, nil
}
