// Package config resolves runtime options from defaults, an optional YAML
// file, command-line flags and STATUSLINE_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/statusline/internal/model"
)

// Config carries runtime options for statusline.
type Config struct {
	Interval time.Duration `yaml:"interval"`
	// Timeout bounds every external call and the whole tick.
	Timeout time.Duration `yaml:"timeout"`
	// Tau is the network smoothing time constant.
	Tau         time.Duration `yaml:"tau"`
	ClockFormat string        `yaml:"clock_format"`
	Units       []string      `yaml:"units"`
	EnableGPU   bool          `yaml:"gpu"`
	LogFile     string        `yaml:"log_file"`
	CrashLog    string        `yaml:"crash_log"`
	Theme       Theme         `yaml:"theme"`
	VPN         VPN           `yaml:"vpn"`
	Media       Media         `yaml:"media"`
	Blocks      []Block       `yaml:"blocks"`

	Path    string `yaml:"-"`
	Preview bool   `yaml:"-"`
	Once    bool   `yaml:"-"`
	Verbose bool   `yaml:"-"`
}

// Theme colors as #rrggbb strings.
type Theme struct {
	Good   string `yaml:"good"`
	Warn   string `yaml:"warn"`
	Bad    string `yaml:"bad"`
	Accent string `yaml:"accent"`
	Light  string `yaml:"light"`
	Dark   string `yaml:"dark"`
}

// VPN configures the cached VPN status block.
type VPN struct {
	Command []string      `yaml:"command"`
	TTL     time.Duration `yaml:"ttl"`
}

// Media configures the now-playing marquee.
type Media struct {
	Width     int           `yaml:"width"`
	Rate      time.Duration `yaml:"rate"`
	Separator string        `yaml:"separator"`
}

// Block is one entry of the bar, left to right.
type Block struct {
	Type       string   `yaml:"type"`
	Label      string   `yaml:"label"`
	Path       string   `yaml:"path"`
	Interfaces []string `yaml:"interfaces"`
	Devices    []int    `yaml:"devices"`
	Style      string   `yaml:"style"`
}

// Block types.
const (
	BlockClock = "clock"
	BlockMem   = "mem"
	BlockCPU   = "cpu"
	BlockGPU   = "gpu"
	BlockDisk  = "disk"
	BlockNet   = "net"
	BlockMedia = "media"
	BlockVPN   = "vpn"
)

func Default() Config {
	return Config{
		Interval:    250 * time.Millisecond,
		Timeout:     400 * time.Millisecond,
		Tau:         2 * time.Second,
		ClockFormat: "Mon 2006-01-02 03:04:05 PM",
		EnableGPU:   true,
		CrashLog:    filepath.Join(os.TempDir(), "statusline-crash.log"),
		Theme: Theme{
			Good:   "#66ff66",
			Warn:   "#ffff66",
			Bad:    "#ff6666",
			Accent: "#88c0d0",
			Light:  "#ffffff",
			Dark:   "#000000",
		},
		VPN: VPN{
			Command: []string{"mullvad", "status"},
			TTL:     5 * time.Second,
		},
		Media: Media{
			Width:     30,
			Rate:      300 * time.Millisecond,
			Separator: "  ·  ",
		},
		Blocks: []Block{
			{Type: BlockMedia},
			{Type: BlockVPN},
			{Type: BlockNet},
			{Type: BlockDisk, Label: "root", Path: "/"},
			{Type: BlockGPU, Devices: []int{0}},
			{Type: BlockCPU, Style: "cells"},
			{Type: BlockMem},
			{Type: BlockClock},
		},
	}
}

// DefaultPath is where the YAML file is looked up when -config is not given.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "statusline", "config.yaml")
	}
	return ""
}

func bind(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Path, "config", cfg.Path, "path to YAML config file")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "refresh interval")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "ceiling for external calls within a tick")
	fs.DurationVar(&cfg.Tau, "tau", cfg.Tau, "network rate smoothing time constant")
	fs.BoolVar(&cfg.EnableGPU, "gpu", cfg.EnableGPU, "enable GPU sampling")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs here instead of stderr")
	fs.StringVar(&cfg.CrashLog, "crash-log", cfg.CrashLog, "where to write a diagnostic trace on fatal errors")
	fs.BoolVar(&cfg.Preview, "preview", cfg.Preview, "render the bar in the terminal instead of speaking i3bar")
	fs.BoolVar(&cfg.Once, "once", cfg.Once, "emit a single tick and exit")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable debug logging")
}

// FromFlags parses flags, the config file they point at, and environment
// overrides. Flags given explicitly win over the file.
func FromFlags(args []string) (Config, error) {
	cfg := Default()
	cfg.Path = DefaultPath()
	fs := flag.NewFlagSet("statusline", flag.ContinueOnError)
	bind(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	if cfg.Path != "" {
		fileCfg := Default()
		err := LoadFile(cfg.Path, &fileCfg)
		switch {
		case err == nil:
			fileCfg.Path = cfg.Path
			override := flag.NewFlagSet("statusline", flag.ContinueOnError)
			bind(override, &fileCfg)
			if err := override.Parse(args); err != nil {
				return cfg, err
			}
			cfg = fileCfg
		case errors.Is(err, os.ErrNotExist) && !explicit:
			// No file at the default location is fine.
		default:
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// LoadFile decodes YAML from path over cfg. Keys absent from the file keep
// their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STATUSLINE_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			cfg.Interval = parsed
		}
	}
	if v := os.Getenv("STATUSLINE_TAU"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Tau = parsed
		}
	}
	if v := os.Getenv("STATUSLINE_GPU"); v == "0" {
		cfg.EnableGPU = false
	}
	if v := os.Getenv("STATUSLINE_VPN_COMMAND"); v != "" {
		cfg.VPN.Command = strings.Fields(v)
	}
}

// Validate rejects settings the bar cannot run with.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("config: interval must be positive, got %v", c.Interval)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %v", c.Timeout)
	}
	if _, err := c.Theme.Palette(); err != nil {
		return err
	}
	for i, b := range c.Blocks {
		switch b.Type {
		case BlockClock, BlockMem, BlockGPU, BlockNet, BlockMedia, BlockVPN:
		case BlockCPU:
			if b.Style != "" && b.Style != "cells" && b.Style != "label" {
				return fmt.Errorf("config: block %d: unknown cpu style %q", i, b.Style)
			}
		case BlockDisk:
			if b.Path == "" {
				return fmt.Errorf("config: block %d: disk needs a path", i)
			}
		default:
			return fmt.Errorf("config: block %d: unknown type %q", i, b.Type)
		}
	}
	return nil
}

// Palette is the parsed Theme.
type Palette struct {
	Good, Warn, Bad, Accent, Light, Dark model.Color
}

// Palette parses every theme color.
func (t Theme) Palette() (Palette, error) {
	var p Palette
	for _, f := range []struct {
		name string
		hex  string
		dst  *model.Color
	}{
		{"good", t.Good, &p.Good},
		{"warn", t.Warn, &p.Warn},
		{"bad", t.Bad, &p.Bad},
		{"accent", t.Accent, &p.Accent},
		{"light", t.Light, &p.Light},
		{"dark", t.Dark, &p.Dark},
	} {
		c, err := colorful.Hex(f.hex)
		if err != nil {
			return p, fmt.Errorf("config: theme %s: %w", f.name, err)
		}
		r, g, b := c.RGB255()
		*f.dst = model.RGB(r, g, b)
	}
	return p, nil
}
