package main

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"uv-mask-maker/internal/composite"
	"uv-mask-maker/internal/mesh"
	"uv-mask-maker/internal/session"
	"uv-mask-maker/internal/testmesh"
)

func writeOBJFile(t *testing.T, path string, s *mesh.Snapshot) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := mesh.WriteOBJ(f, s); err != nil {
		t.Fatalf("write obj: %v", err)
	}
}

func colored(s *mesh.Snapshot, c color.NRGBA) *mesh.Snapshot {
	colors := make([]color.NRGBA, s.VertexCount())
	for i := range colors {
		colors[i] = c
	}
	return s.WithColors(colors)
}

func channelSession(t *testing.T, m *mesh.Snapshot) *session.Session {
	t.Helper()
	st := session.DefaultSettings()
	st.Size = 16
	st.ChannelWrite = true
	sess := session.New(st)
	if err := sess.Load(m); err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.Select(0)
	return sess
}

func TestBakeVertexColorsFallback(t *testing.T) {
	dir := t.TempDir()
	gray := color.NRGBA{100, 100, 100, 255}
	m := colored(testmesh.TwoIslands(), gray)
	sess := channelSession(t, m)

	// a single quad: 4 vertices against the target's 8
	small := &mesh.Snapshot{}
	testmesh.Quad(small, testmesh.UnitQuad(0), testmesh.UVRect(0, 0, 1, 1))
	basePath := filepath.Join(dir, "base.obj")
	writeOBJFile(t, basePath, colored(small, color.NRGBA{255, 0, 0, 255}))

	out := filepath.Join(dir, "out", "baked.obj")
	err := bakeVertexColors(sess, m, out, basePath, false)
	if !errors.Is(err, composite.ErrVertexCountMismatch) {
		t.Fatalf("expected ErrVertexCountMismatch, got %v", err)
	}

	if err := bakeVertexColors(sess, m, out, basePath, true); err != nil {
		t.Fatalf("bake with fallback: %v", err)
	}
	back, err := mesh.LoadOBJ(out)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !back.HasColors() {
		t.Fatal("expected baked colors in the OBJ")
	}
	if c := back.Colors[0]; c.R != 0 || c.G != 100 {
		t.Errorf("expected R cleared over the mesh's own color, got %v", c)
	}
	if c := back.Colors[4]; c != gray {
		t.Errorf("expected unselected vertex to keep %v, got %v", gray, c)
	}
}

func TestBakeVertexColorsBaseWithoutColors(t *testing.T) {
	dir := t.TempDir()
	m := testmesh.TwoIslands()
	sess := channelSession(t, m)

	basePath := filepath.Join(dir, "plain.obj")
	writeOBJFile(t, basePath, testmesh.TwoIslands())
	if err := bakeVertexColors(sess, m, filepath.Join(dir, "baked.obj"), basePath, true); err == nil {
		t.Error("expected error for a base mesh without vertex colors")
	}
}
