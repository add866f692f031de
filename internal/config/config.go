// Package config handles mask maker settings: defaults, YAML files,
// remembered preferences and command-line overrides.
package config

import "runtime"

// Size and margin limits.
const (
	MinSize   = 8
	MaxSize   = 8192
	MaxMargin = 16
)

// Config holds all settings.
type Config struct {
	Mask    MaskConfig    `yaml:"mask"`
	Preview PreviewConfig `yaml:"preview"`
	Output  OutputConfig  `yaml:"output"`
	Batch   BatchConfig   `yaml:"batch"`
	Server  ServerConfig  `yaml:"server"`
	BMD     BMDConfig     `yaml:"bmd"`
	Prefs   PrefsConfig   `yaml:"prefs"`
	Logging LoggingConfig `yaml:"logging"`
}

// MaskConfig controls rasterization and compositing.
type MaskConfig struct {
	Size         int    `yaml:"size"`
	Margin       int    `yaml:"margin"`
	ChannelWrite bool   `yaml:"channel_write"`
	Channels     string `yaml:"channels"` // subset of "rgba"
}

// PreviewConfig controls preview and overlay images.
type PreviewConfig struct {
	Fill         string  `yaml:"fill"` // #rrggbb or #rrggbbaa
	OverlayAlpha float64 `yaml:"overlay_alpha"`
	Seams        bool    `yaml:"seams"`
	SeamColor    string  `yaml:"seam_color"`
	SeamWidth    float64 `yaml:"seam_width"`
	MaxSize      int     `yaml:"max_size"` // thumbnail bound, 0 keeps full size
}

// OutputConfig controls where and how images are written.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Name      string `yaml:"name"`
	Format    string `yaml:"format"` // png or webp (lossless)
	Overwrite bool   `yaml:"overwrite"`
}

// BatchConfig controls the batch runner.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Listen      string `yaml:"listen"`
	MaxBodyMB   int    `yaml:"max_body_mb"`
	MaxSessions int    `yaml:"max_sessions"`
}

// BMDConfig holds BMD decoding overrides.
type BMDConfig struct {
	LEAKey string `yaml:"lea_key"` // hex, empty keeps the built-in key
}

// PrefsConfig locates the preference database.
type PrefsConfig struct {
	Path     string `yaml:"path"`
	Remember bool   `yaml:"remember"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Mask: MaskConfig{
			Size:         512,
			Margin:       2,
			ChannelWrite: false,
			Channels:     "r",
		},
		Preview: PreviewConfig{
			Fill:         "#000000",
			OverlayAlpha: 0.6,
			Seams:        true,
			SeamColor:    "#dc2828",
			SeamWidth:    1,
			MaxSize:      1024,
		},
		Output: OutputConfig{
			Dir:    "GeneratedMasks",
			Name:   "uv_mask",
			Format: "png",
		},
		Batch: BatchConfig{
			Workers: runtime.NumCPU(),
		},
		Server: ServerConfig{
			Listen:      "127.0.0.1:8750",
			MaxBodyMB:   64,
			MaxSessions: 64,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
