package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"uv-mask-maker/internal/filter"
)

// Job describes one mask to produce.
type Job struct {
	Name   string `yaml:"name"`
	Model  string `yaml:"model"`
	Base   string `yaml:"base"`   // base texture for channel-wise output
	Output string `yaml:"output"` // mask path, defaults to <output dir>/<name>.<format>

	Islands []int `yaml:"islands"`
	All     bool  `yaml:"all"`
	Invert  bool  `yaml:"invert"`

	Size     int    `yaml:"size"`     // 0 keeps the run setting
	Margin   *int   `yaml:"margin"`   // nil keeps the run setting
	Channels string `yaml:"channels"` // non-empty enables channel-wise output

	// VertexColors is an OBJ path receiving the mesh with baked colors.
	VertexColors string `yaml:"vertex_colors"`

	// BMD sub-mesh selection.
	Texture     string `yaml:"texture"`
	SkipEffects bool   `yaml:"skip_effects"`
	SkipBody    bool   `yaml:"skip_body"`
}

// SubMeshes returns the BMD sub-mesh filter for the job.
func (j Job) SubMeshes() filter.Options {
	return filter.Options{SkipEffects: j.SkipEffects, SkipBody: j.SkipBody, Texture: j.Texture}
}

// JobFile is the top-level structure of a batch job file.
type JobFile struct {
	Jobs []Job `yaml:"jobs"`
}

var errNoModel = errors.New("job has no model")

// LoadJobs reads a YAML job file. Relative paths inside it are resolved
// against the file's directory and unnamed jobs get the model's stem.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	var f JobFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("batch: parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range f.Jobs {
		j := &f.Jobs[i]
		if j.Model == "" {
			return nil, fmt.Errorf("batch: job %d: %w", i, errNoModel)
		}
		j.Model = resolve(dir, j.Model)
		j.Base = resolve(dir, j.Base)
		j.Output = resolve(dir, j.Output)
		j.VertexColors = resolve(dir, j.VertexColors)
		if j.Name == "" {
			j.Name = stem(j.Model)
		}
	}
	return f.Jobs, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func stem(p string) string {
	base := filepath.Base(p)
	return base[:len(base)-len(filepath.Ext(base))]
}
