package config

import (
	"context"
	"errors"
)

// PrefStore is the subset of the preference store the config layer uses.
type PrefStore interface {
	GetInt(ctx context.Context, key string, def int) (int, error)
	SetInt(ctx context.Context, key string, v int) error
	GetBool(ctx context.Context, key string, def bool) (bool, error)
	SetBool(ctx context.Context, key string, v bool) error
	GetFloat(ctx context.Context, key string, def float64) (float64, error)
	SetFloat(ctx context.Context, key string, v float64) error
	GetString(ctx context.Context, key, def string) (string, error)
	SetString(ctx context.Context, key, v string) error
}

// Preference keys.
const (
	KeySize         = "mask.size"
	KeyMargin       = "mask.margin"
	KeyChannelWrite = "mask.channel_write"
	KeyChannels     = "mask.channels"
	KeyFill         = "preview.fill"
	KeyOverlayAlpha = "preview.overlay_alpha"
	KeyOutputDir    = "output.dir"
	KeyOutputName   = "output.name"
	KeyOverwrite    = "output.overwrite"
)

// ApplyPrefs overlays remembered preferences onto c. Call it after Load and
// before Resolve so flags still win. Unreadable values keep the current
// setting and are reported together.
func (c *Config) ApplyPrefs(ctx context.Context, s PrefStore) error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var err error

	c.Mask.Size, err = s.GetInt(ctx, KeySize, c.Mask.Size)
	collect(err)
	c.Mask.Margin, err = s.GetInt(ctx, KeyMargin, c.Mask.Margin)
	collect(err)
	c.Mask.ChannelWrite, err = s.GetBool(ctx, KeyChannelWrite, c.Mask.ChannelWrite)
	collect(err)
	c.Mask.Channels, err = s.GetString(ctx, KeyChannels, c.Mask.Channels)
	collect(err)
	c.Preview.Fill, err = s.GetString(ctx, KeyFill, c.Preview.Fill)
	collect(err)
	c.Preview.OverlayAlpha, err = s.GetFloat(ctx, KeyOverlayAlpha, c.Preview.OverlayAlpha)
	collect(err)
	c.Output.Dir, err = s.GetString(ctx, KeyOutputDir, c.Output.Dir)
	collect(err)
	c.Output.Name, err = s.GetString(ctx, KeyOutputName, c.Output.Name)
	collect(err)
	c.Output.Overwrite, err = s.GetBool(ctx, KeyOverwrite, c.Output.Overwrite)
	collect(err)

	return errors.Join(errs...)
}

// SavePrefs remembers the user-facing settings of c.
func (c *Config) SavePrefs(ctx context.Context, s PrefStore) error {
	return errors.Join(
		s.SetInt(ctx, KeySize, c.Mask.Size),
		s.SetInt(ctx, KeyMargin, c.Mask.Margin),
		s.SetBool(ctx, KeyChannelWrite, c.Mask.ChannelWrite),
		s.SetString(ctx, KeyChannels, c.Mask.Channels),
		s.SetString(ctx, KeyFill, c.Preview.Fill),
		s.SetFloat(ctx, KeyOverlayAlpha, c.Preview.OverlayAlpha),
		s.SetString(ctx, KeyOutputDir, c.Output.Dir),
		s.SetString(ctx, KeyOutputName, c.Output.Name),
		s.SetBool(ctx, KeyOverwrite, c.Output.Overwrite),
	)
}
