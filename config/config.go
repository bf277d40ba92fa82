package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Carmen-Shannon/oxy-amp/common"
	"github.com/Carmen-Shannon/oxy-amp/log"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned when a config file has neither a TOML nor a YAML extension.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config is the full runtime configuration for the renderer.
type Config struct {
	Window    Window    `toml:"window" yaml:"window"`
	Model     Model     `toml:"model" yaml:"model"`
	Shaders   Shaders   `toml:"shaders" yaml:"shaders"`
	Amplitude Amplitude `toml:"amplitude" yaml:"amplitude"`
	Render    Render    `toml:"render" yaml:"render"`
	Spatial   Spatial   `toml:"spatial" yaml:"spatial"`
	Profiling bool      `toml:"profiling" yaml:"profiling"`
	Log       Log       `toml:"log" yaml:"log"`
}

type Window struct {
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	Title  string `toml:"title" yaml:"title"`
}

type Model struct {
	Path string `toml:"path" yaml:"path"`
	// FlipY negates the y coordinate of every position and normal on load.
	FlipY *bool `toml:"flip_y" yaml:"flip_y"`
}

type Shaders struct {
	Dir  string `toml:"dir" yaml:"dir"`
	Name string `toml:"name" yaml:"name"`
}

type Amplitude struct {
	CellSize float32 `toml:"cell_size" yaml:"cell_size"`
	// Initial is written to every cell before the first dispatch. Negative means not yet computed.
	Initial       *float32  `toml:"initial" yaml:"initial"`
	WorkgroupSize [3]uint32 `toml:"workgroup_size" yaml:"workgroup_size"`
}

type Render struct {
	FramesInFlight       int    `toml:"frames_in_flight" yaml:"frames_in_flight"`
	PresentMode          string `toml:"present_mode" yaml:"present_mode"`
	ForceFallbackAdapter bool   `toml:"force_fallback_adapter" yaml:"force_fallback_adapter"`
	ValidateAmplitude    bool   `toml:"validate_amplitude" yaml:"validate_amplitude"`
}

type Spatial struct {
	Workers int `toml:"workers" yaml:"workers"`
}

type Log struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	flipY := true
	initial := float32(-1)
	return Config{
		Window:  Window{Width: 1920, Height: 1080, Title: "GTX"},
		Model:   Model{Path: filepath.Join("models", "sponza.obj"), FlipY: &flipY},
		Shaders: Shaders{Dir: "shaders", Name: "amp"},
		Amplitude: Amplitude{
			CellSize:      10,
			Initial:       &initial,
			WorkgroupSize: [3]uint32{4, 4, 4},
		},
		Render:  Render{FramesInFlight: 2, PresentMode: "mailbox"},
		Spatial: Spatial{Workers: runtime.NumCPU()},
		Log:     Log{Level: "notice"},
	}
}

// Load reads a TOML or YAML config file, chosen by extension, and fills any field left
// unset from Default.
//
// Parameters:
//   - path: the config file path (.toml, .yaml or .yml)
//
// Returns:
//   - Config: the merged configuration
//   - error: an error if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &loaded)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg := loaded.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	d := Default()
	c.Window.Width = common.Coalesce(c.Window.Width, d.Window.Width)
	c.Window.Height = common.Coalesce(c.Window.Height, d.Window.Height)
	c.Window.Title = common.Coalesce(c.Window.Title, d.Window.Title)
	c.Model.Path = common.Coalesce(c.Model.Path, d.Model.Path)
	c.Model.FlipY = common.Coalesce(c.Model.FlipY, d.Model.FlipY)
	c.Shaders.Dir = common.Coalesce(c.Shaders.Dir, d.Shaders.Dir)
	c.Shaders.Name = common.Coalesce(c.Shaders.Name, d.Shaders.Name)
	c.Amplitude.CellSize = common.Coalesce(c.Amplitude.CellSize, d.Amplitude.CellSize)
	c.Amplitude.Initial = common.Coalesce(c.Amplitude.Initial, d.Amplitude.Initial)
	c.Amplitude.WorkgroupSize = common.Coalesce(c.Amplitude.WorkgroupSize, d.Amplitude.WorkgroupSize)
	c.Render.FramesInFlight = common.Coalesce(c.Render.FramesInFlight, d.Render.FramesInFlight)
	c.Render.PresentMode = common.Coalesce(c.Render.PresentMode, d.Render.PresentMode)
	c.Spatial.Workers = common.Coalesce(c.Spatial.Workers, d.Spatial.Workers)
	c.Log.Level = common.Coalesce(c.Log.Level, d.Log.Level)
	return c
}

// Validate checks the configuration for values the renderer cannot run with.
//
// Returns:
//   - error: the first problem found, or nil
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	case c.Render.FramesInFlight < 1 || c.Render.FramesInFlight > 3:
		return fmt.Errorf("frames_in_flight must be in [1,3], got %d", c.Render.FramesInFlight)
	case c.Amplitude.CellSize <= 0:
		return fmt.Errorf("amplitude cell_size must be positive, got %v", c.Amplitude.CellSize)
	case c.Spatial.Workers < 1:
		return fmt.Errorf("spatial workers must be positive, got %d", c.Spatial.Workers)
	}
	for axis, n := range c.Amplitude.WorkgroupSize {
		if n == 0 {
			return fmt.Errorf("amplitude workgroup_size[%d] must be non-zero", axis)
		}
	}
	switch c.Render.PresentMode {
	case "mailbox", "fifo", "immediate":
	default:
		return fmt.Errorf("unknown present_mode %q", c.Render.PresentMode)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// FlipY reports whether loaded models have their y axis negated.
func (c Config) FlipY() bool {
	return c.Model.FlipY == nil || *c.Model.FlipY
}

// InitialAmplitude returns the value every amplitude cell starts with.
func (c Config) InitialAmplitude() float32 {
	if c.Amplitude.Initial == nil {
		return -1
	}
	return *c.Amplitude.Initial
}
