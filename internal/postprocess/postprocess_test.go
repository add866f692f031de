package postprocess

import (
	"image"
	"image/color"
	"reflect"
	"testing"
)

func maskFrom(rows ...string) ([]bool, int, int) {
	h := len(rows)
	w := len(rows[0])
	m := make([]bool, w*h)
	for y, r := range rows {
		for x, c := range r {
			m[y*w+x] = c == '#'
		}
	}
	return m, w, h
}

func TestDilateCross(t *testing.T) {
	m, w, h := maskFrom(
		".....",
		".....",
		"..#..",
		".....",
		".....",
	)
	want, _, _ := maskFrom(
		".....",
		"..#..",
		".###.",
		"..#..",
		".....",
	)
	got := Dilate(m, w, h, 1)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected 4-neighborhood cross, got %v", got)
	}

	want2, _, _ := maskFrom(
		"..#..",
		".###.",
		"#####",
		".###.",
		"..#..",
	)
	if got := Dilate(m, w, h, 2); !reflect.DeepEqual(got, want2) {
		t.Errorf("expected diamond after 2 iterations, got %v", got)
	}
}

func TestDilateZeroIterations(t *testing.T) {
	m, w, h := maskFrom("#..", "...")
	got := Dilate(m, w, h, 0)
	if !reflect.DeepEqual(got, m) {
		t.Errorf("expected unchanged mask, got %v", got)
	}
	got[1] = true
	if m[1] {
		t.Error("expected a copy, input was modified")
	}
}

func TestDilateMonotonicAndPure(t *testing.T) {
	m, w, h := maskFrom(
		"#......",
		".......",
		"....#..",
	)
	orig := append([]bool(nil), m...)
	prev := m
	for it := 1; it <= 4; it++ {
		got := Dilate(m, w, h, it)
		for i := range prev {
			if prev[i] && !got[i] {
				t.Errorf("iteration %d lost pixel %d", it, i)
			}
		}
		prev = got
	}
	if !reflect.DeepEqual(m, orig) {
		t.Error("input was modified")
	}
}

func TestDilateEdges(t *testing.T) {
	m, w, h := maskFrom("#.", "..")
	want, _, _ := maskFrom("##", "#.")
	if got := Dilate(m, w, h, 1); !reflect.DeepEqual(got, want) {
		t.Errorf("expected corner growth clipped to grid, got %v", got)
	}
	if got := Dilate(m, w, h, 10); !reflect.DeepEqual(got, []bool{true, true, true, true}) {
		t.Errorf("expected full grid, got %v", got)
	}
}

func TestDilateSizeMismatch(t *testing.T) {
	m, _, _ := maskFrom("#..", "...")
	got := Dilate(m, 4, 4, 2)
	if !reflect.DeepEqual(got, m) {
		t.Errorf("expected unchanged copy for a short mask, got %v", got)
	}
}

func TestRegions(t *testing.T) {
	m, w, h := maskFrom(
		"##...",
		"#...#",
		"....#",
		"..#..",
	)
	got := Regions(m, w, h)
	// the lone pixel at (2,3) touches nothing; (4,1)-(4,2) form one region
	if !reflect.DeepEqual(got, []int{3, 2, 1}) {
		t.Errorf("expected [3 2 1], got %v", got)
	}
	diag, w, h := maskFrom("#.", ".#")
	if got := Regions(diag, w, h); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("expected diagonal pixels to join, got %v", got)
	}
	if got := Regions(nil, 0, 0); got != nil {
		t.Errorf("expected nil for empty mask, got %v", got)
	}
}

func TestThumbnail(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 255
	}
	th := Thumbnail(img, 16)
	if th.Bounds().Dx() != 16 || th.Bounds().Dy() != 8 {
		t.Errorf("expected 16x8, got %v", th.Bounds())
	}
	if c := th.NRGBAAt(8, 4); c != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("expected opaque black, got %v", c)
	}
	if Thumbnail(img, 128) != img {
		t.Error("expected small image to pass through")
	}
}
