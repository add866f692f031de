package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Flags holds CLI flag values that override config file settings.
// Zero values (and -1 for Margin) mean "not given".
type Flags struct {
	Size      int
	Margin    int
	Channels  string
	OutputDir string
	Format    string
	Workers   int
	Listen    string
	LogLevel  string
	LogFile   string
	PrefsPath string
	LEAKey    string
}

// NoFlags returns a Flags value with nothing set.
func NoFlags() Flags {
	return Flags{Margin: -1}
}

// Resolve applies flag overrides, then clamps every setting into range.
func (c *Config) Resolve(flags Flags) {
	if flags.Size > 0 {
		c.Mask.Size = flags.Size
	}
	if flags.Margin >= 0 {
		c.Mask.Margin = flags.Margin
	}
	if flags.Channels != "" {
		c.Mask.Channels = flags.Channels
		c.Mask.ChannelWrite = true
	}
	if flags.OutputDir != "" {
		c.Output.Dir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Output.Format = flags.Format
	}
	if flags.Workers > 0 {
		c.Batch.Workers = flags.Workers
	}
	if flags.Listen != "" {
		c.Server.Listen = flags.Listen
	}
	if flags.LogLevel != "" {
		c.Logging.Level = flags.LogLevel
	}
	if flags.LogFile != "" {
		c.Logging.LogFile = flags.LogFile
	}
	if flags.PrefsPath != "" {
		c.Prefs.Path = flags.PrefsPath
	}
	if flags.LEAKey != "" {
		c.BMD.LEAKey = flags.LEAKey
	}

	c.clamp()
}

func (c *Config) clamp() {
	c.Mask.Size = clampInt(c.Mask.Size, MinSize, MaxSize)
	c.Mask.Margin = clampInt(c.Mask.Margin, 0, MaxMargin)
	c.Mask.Channels = strings.ToLower(c.Mask.Channels)

	if c.Preview.OverlayAlpha < 0 {
		c.Preview.OverlayAlpha = 0
	}
	if c.Preview.OverlayAlpha > 1 {
		c.Preview.OverlayAlpha = 1
	}
	if c.Preview.SeamWidth <= 0 {
		c.Preview.SeamWidth = 1
	}

	c.Output.Format = strings.ToLower(strings.TrimPrefix(c.Output.Format, "."))
	if c.Output.Format == "" {
		c.Output.Format = "png"
	}
	if c.Output.Name == "" {
		c.Output.Name = "uv_mask"
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = runtime.NumCPU()
	}
	if c.Server.MaxBodyMB <= 0 {
		c.Server.MaxBodyMB = 64
	}
	if c.Server.MaxSessions <= 0 {
		c.Server.MaxSessions = 64
	}
	if c.Prefs.Path == "" {
		c.Prefs.Path = DefaultPrefsPath()
	}
}

// Validate reports settings that clamping cannot repair.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "png", "webp":
	default:
		return fmt.Errorf("config: unsupported output format %q", c.Output.Format)
	}
	for _, ch := range c.Mask.Channels {
		if !strings.ContainsRune("rgba", ch) {
			return fmt.Errorf("config: unknown channel %q", ch)
		}
	}
	if _, err := ParseHexColor(c.Preview.Fill); err != nil {
		return err
	}
	if _, err := ParseHexColor(c.Preview.SeamColor); err != nil {
		return err
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
