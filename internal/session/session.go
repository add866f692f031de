// Package session holds the state of one mask-making session: the analyzed
// mesh, the island selection, the click mode and the mask settings.
//
// A Session is safe for concurrent use. Results are replaced on change,
// never mutated in place, so returned label maps and analyses stay valid.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"go.uber.org/zap"

	"uv-mask-maker/internal/composite"
	"uv-mask-maker/internal/config"
	"uv-mask-maker/internal/logger"
	"uv-mask-maker/internal/mesh"
	"uv-mask-maker/internal/picking"
	"uv-mask-maker/internal/postprocess"
	"uv-mask-maker/internal/raster"
	"uv-mask-maker/internal/texture"
	"uv-mask-maker/internal/uv"
)

// ErrNoMesh is returned by operations that need a loaded mesh.
var ErrNoMesh = errors.New("session: no mesh loaded")

// Settings are the mask parameters of a session.
type Settings struct {
	Size         int
	Margin       int
	ChannelWrite bool
	Channels     composite.ChannelSet
	Fill         color.NRGBA
	OverlayAlpha float64
	Seams        bool
	SeamStyle    composite.SeamStyle
	PreviewMax   int
}

// DefaultSettings mirrors config.Default.
func DefaultSettings() Settings {
	s, _ := SettingsFromConfig(config.Default())
	return s
}

// SettingsFromConfig converts resolved configuration into Settings.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	ch, err := composite.ParseChannels(cfg.Mask.Channels)
	if err != nil {
		return Settings{}, err
	}
	fill, err := config.ParseHexColor(cfg.Preview.Fill)
	if err != nil {
		return Settings{}, err
	}
	seam, err := config.ParseHexColor(cfg.Preview.SeamColor)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Size:         cfg.Mask.Size,
		Margin:       cfg.Mask.Margin,
		ChannelWrite: cfg.Mask.ChannelWrite,
		Channels:     ch,
		Fill:         fill,
		OverlayAlpha: cfg.Preview.OverlayAlpha,
		Seams:        cfg.Preview.Seams,
		SeamStyle:    composite.SeamStyle{Color: seam, Width: cfg.Preview.SeamWidth, Frame: true},
		PreviewMax:   cfg.Preview.MaxSize,
	}, nil
}

// Info summarizes a session.
type Info struct {
	Loaded      bool   `json:"loaded"`
	Vertices    int    `json:"vertices"`
	Triangles   int    `json:"triangles"`
	Islands     int    `json:"islands"`
	BorderEdges int    `json:"border_edges"`
	Selected    []int  `json:"selected"`
	Mode        string `json:"mode"`
	Size        int    `json:"size"`
	Margin      int    `json:"margin"`
	Channels    string `json:"channels"`
	ChannelMode bool   `json:"channel_write"`
}

// Session is the explicit caller context for mask making.
type Session struct {
	mu       sync.RWMutex
	snapshot *mesh.Snapshot
	analysis *uv.Analysis
	sel      *uv.Selection
	mode     uv.Mode
	settings Settings
	labels   *raster.Cache
	log      *zap.Logger
}

// New returns an empty session.
func New(settings Settings) *Session {
	return &Session{
		settings: settings,
		labels:   raster.NewCache(),
		sel:      uv.NewSelection(nil),
		log:      logger.Named("session"),
	}
}

// Load analyzes m and replaces the current mesh. The selection and cached
// label maps are discarded.
func (s *Session) Load(m *mesh.Snapshot) error {
	a, err := uv.Analyze(m)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = m
	s.analysis = a
	s.sel = uv.NewSelection(a)
	s.labels.Invalidate()
	s.log.Info("mesh analyzed",
		zap.Int("vertices", a.VertexCount()),
		zap.Int("triangles", len(a.Triangles)),
		zap.Int("islands", a.IslandCount()),
		zap.Int("border_edges", len(a.BorderEdges)))
	return nil
}

// Analysis returns the current analysis, or nil.
func (s *Session) Analysis() *uv.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysis
}

// Snapshot returns the loaded mesh, or nil.
func (s *Session) Snapshot() *mesh.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Settings returns a copy of the current settings.
func (s *Session) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the settings. Label maps stay cached per size.
func (s *Session) SetSettings(st Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = st
}

// Mode returns the click mode.
func (s *Session) Mode() uv.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode sets the click mode.
func (s *Session) SetMode(m uv.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// ToggleMode flips between add and remove and returns the new mode.
func (s *Session) ToggleMode() uv.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == uv.ModeAdd {
		s.mode = uv.ModeRemove
	} else {
		s.mode = uv.ModeAdd
	}
	return s.mode
}

// Pick applies the current mode to the island owning triangle tri.
func (s *Session) Pick(tri int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analysis == nil {
		return 0, false
	}
	id, ok := s.analysis.PickIsland(tri)
	if !ok {
		return 0, false
	}
	s.sel = s.sel.Clone()
	s.sel.Apply(id, s.mode)
	s.log.Debug("island picked", zap.Int("triangle", tri), zap.Int("island", id),
		zap.Stringer("mode", s.mode))
	return id, true
}

// PickRay casts r against the loaded mesh and picks the nearest hit.
func (s *Session) PickRay(r picking.Ray) (int, bool) {
	m := s.Snapshot()
	if m == nil {
		return 0, false
	}
	tri, _, ok := picking.PickTriangle(r, m)
	if !ok {
		return 0, false
	}
	return s.Pick(tri)
}

// PickAt picks through viewport pixel (x, y) of a w x h view from cam.
func (s *Session) PickAt(cam picking.Camera, x, y float64, w, h int) (int, bool) {
	m := s.Snapshot()
	if m == nil {
		return 0, false
	}
	return s.PickRay(cam.Ray(m, x, y, w, h))
}

// update runs fn on a copy of the selection and publishes it.
func (s *Session) update(fn func(sel *uv.Selection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.sel.Clone()
	fn(sel)
	s.sel = sel
}

// Toggle flips island id and reports whether it is now selected.
func (s *Session) Toggle(id int) bool {
	var on bool
	s.update(func(sel *uv.Selection) { on = sel.Toggle(id) })
	return on
}

// Select adds ids to the selection.
func (s *Session) Select(ids ...int) {
	s.update(func(sel *uv.Selection) {
		for _, id := range ids {
			sel.Add(id)
		}
	})
}

// Deselect removes ids from the selection.
func (s *Session) Deselect(ids ...int) {
	s.update(func(sel *uv.Selection) {
		for _, id := range ids {
			sel.Remove(id)
		}
	})
}

// Invert inverts the selection.
func (s *Session) Invert() { s.update((*uv.Selection).Invert) }

// SelectAll selects every island.
func (s *Session) SelectAll() { s.update((*uv.Selection).SelectAll) }

// Clear empties the selection.
func (s *Session) Clear() { s.update((*uv.Selection).Clear) }

// Selection returns the current selection. Callers must not mutate it.
func (s *Session) Selection() *uv.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sel
}

// view is a consistent snapshot of the session for rendering.
type view struct {
	mesh     *mesh.Snapshot
	analysis *uv.Analysis
	sel      *uv.Selection
	settings Settings
}

func (s *Session) current() (view, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.analysis == nil {
		return view{}, ErrNoMesh
	}
	return view{s.snapshot, s.analysis, s.sel, s.settings}, nil
}

// LabelMap returns the label map at the configured size.
func (s *Session) LabelMap() (*raster.LabelMap, error) {
	v, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.labels.Get(v.analysis, v.settings.Size, v.settings.Size)
}

// Mask returns the dilated selection mask at the configured size.
func (s *Session) Mask() (*composite.Mask, error) {
	return s.MaskWith(s.Settings())
}

// MaskWith is Mask with explicit settings.
func (s *Session) MaskWith(st Settings) (*composite.Mask, error) {
	v, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.mask(v, st)
}

func (s *Session) mask(v view, st Settings) (*composite.Mask, error) {
	lm, err := s.labels.Get(v.analysis, st.Size, st.Size)
	if err != nil {
		return nil, err
	}
	return composite.BuildMask(lm, v.sel, st.Margin)
}

// ExportImage renders the final mask texture. base is only used in
// channel-wise mode and is resized to the mask size when needed.
func (s *Session) ExportImage(base *image.NRGBA) (*image.NRGBA, error) {
	return s.ExportImageWith(s.Settings(), base)
}

// ExportImageWith is ExportImage with explicit settings.
func (s *Session) ExportImageWith(st Settings, base *image.NRGBA) (*image.NRGBA, error) {
	v, err := s.current()
	if err != nil {
		return nil, err
	}
	lm, err := s.labels.Get(v.analysis, st.Size, st.Size)
	if err != nil {
		return nil, err
	}
	if base != nil {
		base = texture.ResizeTo(base, st.Size, st.Size)
	}
	img, err := composite.Compose(lm, v.sel, composite.Options{
		Margin:       st.Margin,
		ChannelWrite: st.ChannelWrite,
		Channels:     st.Channels,
		Base:         base,
	})
	if err != nil {
		return nil, fmt.Errorf("session: export: %w", err)
	}
	s.log.Info("mask rendered", zap.Int("size", st.Size), zap.Int("margin", st.Margin),
		zap.Int("selected", v.sel.Len()), zap.Bool("channel_write", st.ChannelWrite),
		zap.Stringer("channels", st.Channels))
	return img, nil
}

// PreviewImage renders the selection for display. With a base texture the
// selection is drawn as a translucent overlay on it. Seams are stroked when
// enabled and the result is bounded by PreviewMax.
func (s *Session) PreviewImage(base *image.NRGBA) (*image.NRGBA, error) {
	return s.PreviewImageWith(s.Settings(), base)
}

// PreviewImageWith is PreviewImage with explicit settings.
func (s *Session) PreviewImageWith(st Settings, base *image.NRGBA) (*image.NRGBA, error) {
	v, err := s.current()
	if err != nil {
		return nil, err
	}
	m, err := s.mask(v, st)
	if err != nil {
		return nil, err
	}

	var img *image.NRGBA
	if base != nil {
		img = composite.OverlayOnto(texture.ResizeTo(base, st.Size, st.Size),
			composite.Overlay(m, st.Fill, st.OverlayAlpha))
	} else {
		img = composite.Preview(m, st.Fill)
	}
	if st.Seams {
		img, err = composite.DrawSeams(img, v.analysis, st.SeamStyle)
		if err != nil {
			return nil, err
		}
	}
	return postprocess.Thumbnail(img, st.PreviewMax), nil
}

// VertexColors bakes the selection into per-vertex colors. Outside
// channel-wise mode the bake is flat: selected vertices opaque black, the
// rest opaque white, and base and fallback are ignored. In channel-wise
// mode a nil base uses the mesh's own colors when it has them.
func (s *Session) VertexColors(base, fallback []color.NRGBA) ([]color.NRGBA, error) {
	v, err := s.current()
	if err != nil {
		return nil, err
	}
	if !v.settings.ChannelWrite {
		flat := composite.ChannelSet{R: true, G: true, B: true}
		return composite.VertexColors(v.analysis, v.sel, flat, nil, nil)
	}
	if base == nil && v.mesh.HasColors() {
		base = v.mesh.Colors
	}
	return composite.VertexColors(v.analysis, v.sel, v.settings.Channels, base, fallback)
}

// Info summarizes the session.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := Info{
		Mode:        s.mode.String(),
		Selected:    s.sel.IDs(),
		Size:        s.settings.Size,
		Margin:      s.settings.Margin,
		Channels:    s.settings.Channels.String(),
		ChannelMode: s.settings.ChannelWrite,
	}
	if a := s.analysis; a != nil {
		info.Loaded = true
		info.Vertices = a.VertexCount()
		info.Triangles = len(a.Triangles)
		info.Islands = a.IslandCount()
		info.BorderEdges = len(a.BorderEdges)
	}
	return info
}
