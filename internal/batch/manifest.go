package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Manifest is written next to batch outputs.
type Manifest struct {
	Generated time.Time `json:"generated"`
	Size      int       `json:"size"`
	Margin    int       `json:"margin"`
	Channels  string    `json:"channels,omitempty"`
	Jobs      int       `json:"jobs"`
	Failed    int       `json:"failed"`
	Results   []Result  `json:"results"`
}

// WriteManifest writes manifest.json describing results. Output paths are
// stored relative to the manifest's directory when possible.
func WriteManifest(path string, cfg Config, results []Result) error {
	dir := filepath.Dir(path)
	rel := make([]Result, len(results))
	for i, r := range results {
		r.Output = relTo(dir, r.Output)
		r.VertexColors = relTo(dir, r.VertexColors)
		rel[i] = r
	}

	m := Manifest{
		Generated: time.Now().UTC().Truncate(time.Second),
		Size:      cfg.Settings.Size,
		Margin:    cfg.Settings.Margin,
		Jobs:      len(results),
		Failed:    Failed(results),
		Results:   rel,
	}
	if cfg.Settings.ChannelWrite {
		m.Channels = cfg.Settings.Channels.String()
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func relTo(dir, p string) string {
	if p == "" {
		return p
	}
	r, err := filepath.Rel(dir, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(r)
}
