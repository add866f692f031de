package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"uv-mask-maker/internal/composite"
	"uv-mask-maker/internal/config"
	"uv-mask-maker/internal/export"
	"uv-mask-maker/internal/filter"
	"uv-mask-maker/internal/mesh"
	"uv-mask-maker/internal/picking"
	"uv-mask-maker/internal/session"
	"uv-mask-maker/internal/texture"
	"uv-mask-maker/internal/uv"
)

type sessionRef struct {
	id   uuid.UUID
	sess *session.Session
}

func withValue(r *http.Request, sess *session.Session, id uuid.UUID) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, sessionRef{id: id, sess: sess})
}

func fromRequest(r *http.Request) sessionRef {
	ref, _ := r.Context().Value(ctxKey{}).(sessionRef)
	return ref
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	q := r.URL.Query()
	var (
		m   *mesh.Snapshot
		err error
	)
	switch format := strings.ToLower(q.Get("format")); format {
	case "", "obj":
		m, err = mesh.ParseOBJ(body)
	case "bmd":
		sub := filter.Options{
			Texture:     q.Get("texture"),
			SkipEffects: q.Get("skip_effects") == "true",
			SkipBody:    q.Get("skip_body") == "true",
		}
		var raw []byte
		if raw, err = io.ReadAll(body); err == nil {
			m, err = mesh.ParseBMDWith(raw, sub.Keep)
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported mesh format %q", format))
		return
	}
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}

	sess := session.New(s.opts.Settings)
	if err := sess.Load(m); err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	id, evicted := s.store.add(sess)
	if evicted != uuid.Nil {
		s.log.Info("session evicted", zap.Stringer("session", evicted))
	}
	s.log.Info("session created", zap.Stringer("session", id))

	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "session": sess.Info()})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fromRequest(r).sess.Info())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ref := fromRequest(r)
	s.store.remove(ref.id)
	s.log.Info("session deleted", zap.Stringer("session", ref.id))
	w.WriteHeader(http.StatusNoContent)
}

type settingsPatch struct {
	Size         *int     `json:"size"`
	Margin       *int     `json:"margin"`
	ChannelWrite *bool    `json:"channel_write"`
	Channels     *string  `json:"channels"`
	Fill         *string  `json:"fill"`
	OverlayAlpha *float64 `json:"overlay_alpha"`
	Seams        *bool    `json:"seams"`
	PreviewMax   *int     `json:"preview_max"`
}

func (p settingsPatch) apply(st session.Settings) (session.Settings, error) {
	if p.Size != nil {
		if *p.Size < config.MinSize || *p.Size > config.MaxSize {
			return st, fmt.Errorf("size %d outside %d..%d", *p.Size, config.MinSize, config.MaxSize)
		}
		st.Size = *p.Size
	}
	if p.Margin != nil {
		if *p.Margin < 0 || *p.Margin > config.MaxMargin {
			return st, fmt.Errorf("margin %d outside 0..%d", *p.Margin, config.MaxMargin)
		}
		st.Margin = *p.Margin
	}
	if p.Channels != nil {
		ch, err := composite.ParseChannels(*p.Channels)
		if err != nil {
			return st, err
		}
		st.Channels = ch
		st.ChannelWrite = true
	}
	if p.ChannelWrite != nil {
		st.ChannelWrite = *p.ChannelWrite
	}
	if p.Fill != nil {
		c, err := config.ParseHexColor(*p.Fill)
		if err != nil {
			return st, err
		}
		st.Fill = c
	}
	if p.OverlayAlpha != nil {
		st.OverlayAlpha = max(0, min(1, *p.OverlayAlpha))
	}
	if p.Seams != nil {
		st.Seams = *p.Seams
	}
	if p.PreviewMax != nil {
		st.PreviewMax = max(0, *p.PreviewMax)
	}
	return st, nil
}

// patchFromQuery reads settings overrides from URL query parameters.
func patchFromQuery(q url.Values) (settingsPatch, error) {
	var p settingsPatch
	ints := []struct {
		key string
		dst **int
	}{{"size", &p.Size}, {"margin", &p.Margin}, {"max", &p.PreviewMax}}
	for _, f := range ints {
		if v := q.Get(f.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return p, fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = &n
		}
	}
	if q.Has("channels") {
		v := q.Get("channels")
		p.Channels = &v
	}
	if v := q.Get("fill"); v != "" {
		p.Fill = &v
	}
	bools := []struct {
		key string
		dst **bool
	}{{"channel_write", &p.ChannelWrite}, {"seams", &p.Seams}}
	for _, f := range bools {
		if v := q.Get(f.key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return p, fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = &b
		}
	}
	return p, nil
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	sess := fromRequest(r).sess
	var p settingsPatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := p.apply(sess.Settings())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess.SetSettings(st)
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	sess := fromRequest(r).sess
	var req struct {
		Mode string `json:"mode"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	switch req.Mode {
	case "":
		sess.ToggleMode()
	case "add":
		sess.SetMode(uv.ModeAdd)
	case "remove":
		sess.SetMode(uv.ModeRemove)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown mode %q", req.Mode))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": sess.Mode().String()})
}

type pickRequest struct {
	Triangle *int `json:"triangle"`

	// Viewport picking through an orbit camera.
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Yaw    float64  `json:"yaw"`
	Pitch  float64  `json:"pitch"`
	Zoom   float64  `json:"zoom"`
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	sess := fromRequest(r).sess
	var req pickRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		id  int
		hit bool
	)
	switch {
	case req.Triangle != nil:
		id, hit = sess.Pick(*req.Triangle)
	case req.X != nil && req.Y != nil && req.Width > 0 && req.Height > 0:
		cam := picking.Camera{Yaw: req.Yaw, Pitch: req.Pitch, Zoom: req.Zoom}
		id, hit = sess.PickAt(cam, *req.X, *req.Y, req.Width, req.Height)
	default:
		writeError(w, http.StatusBadRequest, errors.New("pick needs a triangle or x, y, width and height"))
		return
	}

	resp := map[string]any{"hit": hit, "mode": sess.Mode().String()}
	if hit {
		resp["island"] = id
		resp["selected"] = sess.Selection().Contains(id)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess := fromRequest(r).sess
	op := chi.URLParam(r, "op")

	var req struct {
		Islands []int `json:"islands"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	for _, v := range r.URL.Query()["island"] {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("island: %w", err))
			return
		}
		req.Islands = append(req.Islands, id)
	}

	switch op {
	case "invert":
		sess.Invert()
	case "all":
		sess.SelectAll()
	case "clear":
		sess.Clear()
	case "add":
		sess.Select(req.Islands...)
	case "remove":
		sess.Deselect(req.Islands...)
	case "set":
		sess.Clear()
		sess.Select(req.Islands...)
	case "toggle":
		if len(req.Islands) == 0 {
			writeError(w, http.StatusBadRequest, errors.New("toggle needs at least one island"))
			return
		}
		for _, id := range req.Islands {
			sess.Toggle(id)
		}
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown selection operation %q", op))
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

type islandInfo struct {
	ID        int        `json:"id"`
	Triangles int        `json:"triangles"`
	Selected  bool       `json:"selected"`
	UVMin     [2]float32 `json:"uv_min"`
	UVMax     [2]float32 `json:"uv_max"`
	Pixels    int        `json:"pixels"`
}

func (s *Server) handleIslands(w http.ResponseWriter, r *http.Request) {
	sess := fromRequest(r).sess
	a := sess.Analysis()
	lm, err := sess.LabelMap()
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	sel := sess.Selection()
	out := make([]islandInfo, 0, a.IslandCount())
	for _, isl := range a.Islands {
		b, _ := a.IslandUVBounds(isl.ID)
		out = append(out, islandInfo{
			ID:        isl.ID,
			Triangles: len(isl.Triangles),
			Selected:  sel.Contains(isl.ID),
			UVMin:     b.Min,
			UVMax:     b.Max,
			Pixels:    lm.Coverage(isl.ID),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// renderParams reads per-request settings, output format and an optional
// base image from the request body.
func (s *Server) renderParams(w http.ResponseWriter, r *http.Request, sess *session.Session) (session.Settings, string, *image.NRGBA, error) {
	q := r.URL.Query()
	p, err := patchFromQuery(q)
	if err != nil {
		return session.Settings{}, "", nil, err
	}
	st, err := p.apply(sess.Settings())
	if err != nil {
		return st, "", nil, err
	}

	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = s.opts.Format
	}
	if format != "png" && format != "webp" {
		return st, "", nil, fmt.Errorf("%q: %w", format, export.ErrUnsupportedFormat)
	}

	var base *image.NRGBA
	if r.Method == http.MethodPost {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
		if err != nil {
			return st, "", nil, err
		}
		if len(raw) > 0 {
			base, err = texture.Decode(raw, baseExt(q.Get("base"), r.Header.Get("Content-Type")))
			if err != nil {
				return st, "", nil, err
			}
		}
	}
	return st, format, base, nil
}

// baseExt picks the decoder extension for an uploaded base image.
func baseExt(name, contentType string) string {
	if name != "" {
		return "." + strings.TrimPrefix(strings.ToLower(name), ".")
	}
	switch contentType {
	case "image/x-tga", "image/tga":
		return ".tga"
	case "image/webp":
		return ".webp"
	case "image/jpeg":
		return ".jpg"
	}
	return ".png"
}

func (s *Server) writeImage(w http.ResponseWriter, img image.Image, format, name string) {
	var buf bytes.Buffer
	if err := export.Encode(&buf, img, format); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name+"."+format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleMask(w http.ResponseWriter, r *http.Request) {
	sess := fromRequest(r).sess
	st, format, base, err := s.renderParams(w, r, sess)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	img, err := sess.ExportImageWith(st, base)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	s.writeImage(w, img, format, "uv_mask")
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess := fromRequest(r).sess
	st, format, base, err := s.renderParams(w, r, sess)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	img, err := sess.PreviewImageWith(st, base)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	s.writeImage(w, img, format, "uv_preview")
}

type vertexColorsRequest struct {
	Base     [][4]uint8 `json:"base"`
	Fallback [][4]uint8 `json:"fallback"`
}

func toColors(in [][4]uint8) []color.NRGBA {
	if in == nil {
		return nil
	}
	out := make([]color.NRGBA, len(in))
	for i, c := range in {
		out[i] = color.NRGBA{c[0], c[1], c[2], c[3]}
	}
	return out
}

func (s *Server) handleVertexColors(w http.ResponseWriter, r *http.Request) {
	sess := fromRequest(r).sess
	var req vertexColorsRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, statusOf(err), err)
			return
		}
	}

	colors, err := sess.VertexColors(toColors(req.Base), toColors(req.Fallback))
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "obj") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		mesh.WriteOBJ(w, sess.Snapshot().WithColors(colors))
		return
	}
	out := make([][4]uint8, len(colors))
	for i, c := range colors {
		out[i] = [4]uint8{c.R, c.G, c.B, c.A}
	}
	writeJSON(w, http.StatusOK, map[string]any{"colors": out})
}
