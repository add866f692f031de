package batch

import (
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"uv-mask-maker/internal/mesh"
	"uv-mask-maker/internal/session"
	"uv-mask-maker/internal/testmesh"
)

func writeModel(t *testing.T, path string, s *mesh.Snapshot) {
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

func testConfig(dir string) Config {
	st := session.DefaultSettings()
	st.Size = 16
	st.Margin = 0
	return Config{OutputDir: dir, Format: "png", Settings: st, Workers: 2}
}

func TestLoadJobs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	os.WriteFile(path, []byte(`
jobs:
  - model: models/sword.obj
    islands: [0, 2]
    margin: 0
  - name: shield
    model: /abs/shield.bmd
    all: true
    invert: true
    channels: rg
    vertex_colors: out/shield_vc.obj
    texture: shield01.jpg
    skip_effects: true
`), 0o644)

	jobs, err := LoadJobs(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Name != "sword" || jobs[0].Model != filepath.Join(dir, "models", "sword.obj") {
		t.Errorf("unexpected first job %+v", jobs[0])
	}
	if jobs[0].Margin == nil || *jobs[0].Margin != 0 || len(jobs[0].Islands) != 2 {
		t.Errorf("expected explicit zero margin and two islands, got %+v", jobs[0])
	}
	if jobs[1].Model != "/abs/shield.bmd" || !jobs[1].All || !jobs[1].Invert || jobs[1].Margin != nil {
		t.Errorf("unexpected second job %+v", jobs[1])
	}
	if jobs[1].VertexColors != filepath.Join(dir, "out", "shield_vc.obj") {
		t.Errorf("expected resolved vertex color path, got %s", jobs[1].VertexColors)
	}
	if sub := jobs[1].SubMeshes(); !sub.SkipEffects || sub.SkipBody || sub.Texture != "shield01.jpg" {
		t.Errorf("unexpected sub-mesh options %+v", sub)
	}
}

func TestLoadJobsErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadJobs(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected read error")
	}
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("jobs: [unclosed"), 0o644)
	if _, err := LoadJobs(bad); err == nil {
		t.Error("expected parse error")
	}
	noModel := filepath.Join(dir, "nomodel.yaml")
	os.WriteFile(noModel, []byte("jobs:\n  - islands: [0]\n"), 0o644)
	if _, err := LoadJobs(noModel); err == nil || !strings.Contains(err.Error(), "no model") {
		t.Errorf("expected missing model error, got %v", err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "two.obj")
	writeModel(t, model, testmesh.TwoIslands())

	vc := filepath.Join(dir, "vc", "two_vc.obj")
	jobs := []Job{
		{Name: "left", Model: model, Islands: []int{0}, VertexColors: vc},
		{Name: "right", Model: model, Islands: []int{0}, Invert: true},
		{Name: "missing", Model: filepath.Join(dir, "nope.obj"), All: true},
	}
	cfg := testConfig(filepath.Join(dir, "out"))
	results := Run(context.Background(), cfg, jobs)

	if len(results) != 3 || Failed(results) != 1 {
		t.Fatalf("expected one failure in 3 results, got %+v", results)
	}
	left := results[0]
	if !left.Success || left.Islands != 2 || len(left.Selected) != 1 || left.Regions != 1 {
		t.Errorf("unexpected left result %+v", left)
	}
	if left.Pixels == 0 {
		t.Error("expected covered pixels")
	}
	if got := results[1].Selected; len(got) != 1 || got[0] != 1 {
		t.Errorf("expected inverted selection [1], got %v", got)
	}
	if results[2].Success || results[2].Error == "" {
		t.Errorf("expected missing model failure, got %+v", results[2])
	}

	f, err := os.Open(left.Output)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 16 {
		t.Errorf("expected 16px mask, got %v", img.Bounds())
	}
	if c := color.NRGBAModel.Convert(img.At(2, 8)).(color.NRGBA); c != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("expected selected pixel black, got %v", c)
	}

	baked, err := mesh.LoadOBJ(vc)
	if err != nil {
		t.Fatalf("load baked: %v", err)
	}
	if !baked.HasColors() || baked.Colors[0] != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("expected black baked color on selected vertex, got %v", baked.Colors)
	}
}

func TestRunNoOverwrite(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "two.obj")
	writeModel(t, model, testmesh.TwoIslands())

	cfg := testConfig(dir)
	jobs := []Job{{Name: "mask", Model: model, All: true}}
	first := Run(context.Background(), cfg, jobs)
	second := Run(context.Background(), cfg, jobs)
	if first[0].Output == second[0].Output {
		t.Errorf("expected a suffixed second output, both wrote %s", first[0].Output)
	}
	if filepath.Base(second[0].Output) != "mask_1.png" {
		t.Errorf("expected mask_1.png, got %s", second[0].Output)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := Run(ctx, testConfig(t.TempDir()), []Job{{Name: "a", Model: "a.obj"}})
	if results[0].Success || !strings.Contains(results[0].Error, "canceled") {
		t.Errorf("expected cancellation error, got %+v", results[0])
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	results := []Result{
		{Name: "a", Output: filepath.Join(dir, "masks", "a.png"), Success: true, Islands: 3},
		{Name: "b", Error: "boom"},
	}
	path := filepath.Join(dir, "manifest.json")
	if err := WriteManifest(path, cfg, results); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, _ := os.ReadFile(path)
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Jobs != 2 || m.Failed != 1 || m.Size != 16 {
		t.Errorf("unexpected manifest header %+v", m)
	}
	if m.Results[0].Output != "masks/a.png" {
		t.Errorf("expected relative output, got %s", m.Results[0].Output)
	}
	if results[0].Output == "masks/a.png" {
		t.Error("expected caller results to stay unchanged")
	}
}
