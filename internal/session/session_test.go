package session

import (
	"errors"
	"image/color"
	"testing"

	"uv-mask-maker/internal/mesh"
	"uv-mask-maker/internal/picking"
	"uv-mask-maker/internal/testmesh"
	"uv-mask-maker/internal/texture"
	"uv-mask-maker/internal/uv"
)

func smallSettings() Settings {
	st := DefaultSettings()
	st.Size = 16
	st.Margin = 0
	st.Seams = false
	return st
}

func loaded(t *testing.T) *Session {
	t.Helper()
	s := New(smallSettings())
	if err := s.Load(testmesh.TwoIslands()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestDefaultSettings(t *testing.T) {
	st := DefaultSettings()
	if st.Size != 512 || st.Margin != 2 || st.ChannelWrite {
		t.Errorf("unexpected defaults %+v", st)
	}
	if !st.Channels.R || st.Channels.G || st.Channels.B || st.Channels.A {
		t.Errorf("expected only R flagged, got %v", st.Channels)
	}
	if st.Fill != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("expected black fill, got %v", st.Fill)
	}
}

func TestNoMesh(t *testing.T) {
	s := New(smallSettings())
	if _, err := s.Mask(); !errors.Is(err, ErrNoMesh) {
		t.Errorf("expected ErrNoMesh, got %v", err)
	}
	if _, err := s.ExportImage(nil); !errors.Is(err, ErrNoMesh) {
		t.Errorf("expected ErrNoMesh, got %v", err)
	}
	if _, ok := s.Pick(0); ok {
		t.Error("expected pick to fail without a mesh")
	}
	if _, ok := s.PickRay(picking.Ray{}); ok {
		t.Error("expected ray pick to fail without a mesh")
	}
	s.SelectAll()
	if info := s.Info(); info.Loaded || len(info.Selected) != 0 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestPickModes(t *testing.T) {
	s := loaded(t)
	id, ok := s.Pick(2)
	if !ok || id != 1 {
		t.Fatalf("expected island 1, got %d %v", id, ok)
	}
	if !s.Selection().Contains(1) {
		t.Error("expected island 1 selected")
	}
	if _, ok := s.Pick(99); ok {
		t.Error("expected out-of-range triangle to be ignored")
	}

	if s.ToggleMode() != uv.ModeRemove {
		t.Fatal("expected remove mode")
	}
	s.Pick(3)
	if s.Selection().Len() != 0 {
		t.Error("expected island 1 removed")
	}
	s.Pick(3)
	if s.Selection().Len() != 0 {
		t.Error("expected removing twice to be a no-op")
	}
}

func TestSelectionPublishedAsCopy(t *testing.T) {
	s := loaded(t)
	before := s.Selection()
	s.Select(0)
	if before.Len() != 0 {
		t.Error("expected earlier selection value to stay unchanged")
	}
	if !s.Toggle(1) || s.Toggle(1) {
		t.Error("unexpected toggle results")
	}
	s.Invert()
	if got := s.Selection().IDs(); len(got) != 1 || got[0] != 1 {
		t.Errorf("expected [1] after invert, got %v", got)
	}
	s.Clear()
	s.SelectAll()
	if s.Selection().Len() != 2 {
		t.Error("expected both islands selected")
	}
	s.Deselect(0)
	if s.Selection().Contains(0) {
		t.Error("expected island 0 removed")
	}
}

func TestLoadResetsSelection(t *testing.T) {
	s := loaded(t)
	s.SelectAll()
	first, _ := s.LabelMap()
	if err := s.Load(testmesh.SeamedStrip()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Selection().Len() != 0 {
		t.Error("expected selection cleared on load")
	}
	second, _ := s.LabelMap()
	if first == second || second.Source != s.Analysis() {
		t.Error("expected a fresh label map for the new analysis")
	}
}

func TestLoadInvalidKeepsState(t *testing.T) {
	s := loaded(t)
	a := s.Analysis()
	bad := &mesh.Snapshot{Positions: [][3]float32{{0, 0, 0}}, UVs: [][2]float32{{0, 0}}, Triangles: [][3]int{{0, 1, 2}}}
	if err := s.Load(bad); !errors.Is(err, uv.ErrInvalidMesh) {
		t.Errorf("expected ErrInvalidMesh, got %v", err)
	}
	if s.Analysis() != a {
		t.Error("expected previous analysis to survive a failed load")
	}
}

func TestExportFlat(t *testing.T) {
	s := loaded(t)
	s.Select(0)
	img, err := s.ExportImage(nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if img.Bounds().Dx() != 16 {
		t.Fatalf("expected 16px mask, got %v", img.Bounds())
	}
	if c := img.NRGBAAt(2, 8); c != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("expected selected pixel black, got %v", c)
	}
	if c := img.NRGBAAt(13, 8); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("expected unselected pixel white, got %v", c)
	}
}

func TestExportChannelWiseResizesBase(t *testing.T) {
	s := loaded(t)
	st := s.Settings()
	st.ChannelWrite = true
	s.SetSettings(st)
	s.Select(1)

	base := texture.Solid(4, 4, color.NRGBA{255, 255, 0, 255})
	img, err := s.ExportImage(base)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if c := img.NRGBAAt(13, 8); c != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("expected R cleared on selected pixel, got %v", c)
	}
	if c := img.NRGBAAt(2, 8); c != (color.NRGBA{255, 255, 0, 255}) {
		t.Errorf("expected base kept on unselected pixel, got %v", c)
	}
}

func TestPreviewImage(t *testing.T) {
	s := loaded(t)
	st := s.Settings()
	st.Fill = color.NRGBA{0, 0, 255, 255}
	st.PreviewMax = 8
	s.SetSettings(st)
	s.Select(0)

	img, err := s.PreviewImage(nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("expected thumbnail bounded to 8, got %v", img.Bounds())
	}

	st.PreviewMax = 0
	st.Seams = true
	s.SetSettings(st)
	over, err := s.PreviewImage(texture.Solid(16, 16, color.NRGBA{255, 255, 255, 255}))
	if err != nil {
		t.Fatalf("overlay preview: %v", err)
	}
	c := over.NRGBAAt(3, 8)
	if c.B != 255 || c.R == 255 {
		t.Errorf("expected blue tint over selected pixel, got %v", c)
	}
}

func TestVertexColors(t *testing.T) {
	s := loaded(t)
	s.Select(0)
	out, err := s.VertexColors(nil, nil)
	if err != nil {
		t.Fatalf("vertex colors: %v", err)
	}
	if len(out) != 8 {
		t.Fatalf("expected 8 colors, got %d", len(out))
	}
	if out[0] != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("expected selected vertex black, got %v", out[0])
	}
	if out[4] != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("expected unselected vertex white, got %v", out[4])
	}

	st := s.Settings()
	st.ChannelWrite = true
	s.SetSettings(st)
	if _, err := s.VertexColors(make([]color.NRGBA, 3), nil); err == nil {
		t.Error("expected count mismatch error")
	}
}

func TestVertexColorsFlatIgnoresMeshColors(t *testing.T) {
	m := testmesh.TwoIslands()
	m.Colors = make([]color.NRGBA, m.VertexCount())
	for i := range m.Colors {
		m.Colors[i] = color.NRGBA{200, 10, 10, 128}
	}
	s := New(smallSettings())
	if err := s.Load(m); err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Select(0)

	out, err := s.VertexColors(nil, nil)
	if err != nil {
		t.Fatalf("vertex colors: %v", err)
	}
	if out[0] != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("expected selected vertex opaque black, got %v", out[0])
	}
	if out[4] != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("expected unselected vertex opaque white, got %v", out[4])
	}

	st := s.Settings()
	st.ChannelWrite = true
	s.SetSettings(st)
	out, err = s.VertexColors(nil, nil)
	if err != nil {
		t.Fatalf("channel-wise vertex colors: %v", err)
	}
	if out[0] != (color.NRGBA{0, 10, 10, 128}) {
		t.Errorf("expected R cleared over mesh color, got %v", out[0])
	}
	if out[4] != (color.NRGBA{200, 10, 10, 128}) {
		t.Errorf("expected unselected mesh color kept, got %v", out[4])
	}
}

func TestPickAt(t *testing.T) {
	s := loaded(t)
	// TwoIslands spans x in [0,3]; the center of a 100x100 view sits in the
	// gap at x=1.5, the left quarter hits the first quad.
	if _, ok := s.PickAt(picking.Camera{}, 50, 50, 100, 100); ok {
		t.Error("expected miss in the gap between quads")
	}
	id, ok := s.PickAt(picking.Camera{}, 30, 50, 100, 100)
	if !ok || id != 0 {
		t.Errorf("expected island 0, got %d %v", id, ok)
	}
}

func TestInfo(t *testing.T) {
	s := loaded(t)
	s.Select(1)
	info := s.Info()
	if !info.Loaded || info.Islands != 2 || info.Vertices != 8 || info.Triangles != 4 {
		t.Errorf("unexpected info %+v", info)
	}
	if info.BorderEdges != 8 || len(info.Selected) != 1 || info.Mode != "add" || info.Channels != "r" {
		t.Errorf("unexpected info %+v", info)
	}
}
