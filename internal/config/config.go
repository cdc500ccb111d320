// Package config loads the YAML configuration and holds the settings that
// change while the game runs.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Render distance bounds in chunks.
const (
	MinRenderDistance = 2
	MaxRenderDistance = 32
)

// Generator names accepted in world.generator.
const (
	GeneratorLayered = "layered"
	GeneratorPerlin  = "perlin"
	GeneratorEmpty   = "empty"
)

type Config struct {
	Window   Window   `yaml:"window"`
	Camera   Camera   `yaml:"camera"`
	World    World    `yaml:"world"`
	Lighting Lighting `yaml:"lighting"`
	Assets   Assets   `yaml:"assets"`
	Metrics  Metrics  `yaml:"metrics"`
	Log      Log      `yaml:"log"`
}

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
	// FPSLimit caps the frame rate; 0 disables the limiter.
	FPSLimit int  `yaml:"fps_limit"`
	GLDebug  bool `yaml:"gl_debug"`
}

type Camera struct {
	FOV         float32    `yaml:"fov"`
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	Speed       float32    `yaml:"speed"`
	Sensitivity float64    `yaml:"sensitivity"`
	Start       [3]float32 `yaml:"start"`
}

type World struct {
	Generator        string `yaml:"generator"`
	Seed             int64  `yaml:"seed"`
	RenderDistance   int    `yaml:"render_distance"`
	VerticalDistance int    `yaml:"vertical_distance"`
	MaxAddsPerFrame  int    `yaml:"max_adds_per_frame"`
	EmitAtUnloaded   bool   `yaml:"emit_at_unloaded"`
}

type Lighting struct {
	// SunSpeed is the sun's angular speed in radians per second.
	SunSpeed float32 `yaml:"sun_speed"`
	// SunAngle is the starting angle; pi/2 is noon.
	SunAngle    float32 `yaml:"sun_angle"`
	Ambient     float32 `yaml:"ambient"`
	MaxSteps    int     `yaml:"max_steps"`
	LightRadius float32 `yaml:"light_radius"`
}

type Assets struct {
	// Dir is the directory block face images are read from.
	Dir string `yaml:"dir"`
	// Blocks replaces the stock block set when non-empty.
	Blocks []Block `yaml:"blocks"`
}

type Block struct {
	ID         int        `yaml:"id"`
	Name       string     `yaml:"name"`
	Faces      Faces      `yaml:"faces"`
	Emissive   bool       `yaml:"emissive"`
	LightColor [3]float32 `yaml:"light_color"`
}

// Faces names face images. All applies to every face, Side to the four
// side faces; specific faces override both.
type Faces struct {
	All      string `yaml:"all"`
	Side     string `yaml:"side"`
	Top      string `yaml:"top"`
	Bottom   string `yaml:"bottom"`
	Forward  string `yaml:"forward"`
	Right    string `yaml:"right"`
	Backward string `yaml:"backward"`
	Left     string `yaml:"left"`
}

type Metrics struct {
	// Addr is the listen address of the Prometheus endpoint; empty disables
	// it.
	Addr string `yaml:"addr"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func Default() Config {
	return Config{
		Window: Window{
			Width:    900,
			Height:   600,
			Title:    "voxelshade",
			VSync:    true,
			FPSLimit: 0,
		},
		Camera: Camera{
			FOV:         70,
			Near:        0.1,
			Far:         1000,
			Speed:       10,
			Sensitivity: 0.1,
			Start:       [3]float32{0.5, 6, 0.5},
		},
		World: World{
			Generator:        GeneratorLayered,
			Seed:             1,
			RenderDistance:   6,
			VerticalDistance: 2,
			MaxAddsPerFrame:  4,
			EmitAtUnloaded:   true,
		},
		Lighting: Lighting{
			SunSpeed:    0.05,
			SunAngle:    1.0,
			Ambient:     0.25,
			MaxSteps:    128,
			LightRadius: 8,
		},
		Assets: Assets{
			Dir: "assets/textures/blocks",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load overlays the YAML file at path on Default and validates the result.
// An empty path yields the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unusable values and clamps the render distance.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		bad("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.FPSLimit < 0 {
		bad("window.fps_limit %d", c.Window.FPSLimit)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		bad("camera.fov %v", c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		bad("camera near %v far %v", c.Camera.Near, c.Camera.Far)
	}
	switch c.World.Generator {
	case GeneratorLayered, GeneratorPerlin, GeneratorEmpty:
	default:
		bad("world.generator %q", c.World.Generator)
	}
	c.World.RenderDistance = ClampRenderDistance(c.World.RenderDistance)
	if c.World.VerticalDistance < 0 {
		bad("world.vertical_distance %d", c.World.VerticalDistance)
	}
	if c.World.MaxAddsPerFrame <= 0 {
		bad("world.max_adds_per_frame %d", c.World.MaxAddsPerFrame)
	}
	if c.Lighting.Ambient < 0 || c.Lighting.Ambient > 1 {
		bad("lighting.ambient %v", c.Lighting.Ambient)
	}
	if c.Lighting.MaxSteps <= 0 {
		bad("lighting.max_steps %d", c.Lighting.MaxSteps)
	}
	if c.Lighting.LightRadius <= 0 {
		bad("lighting.light_radius %v", c.Lighting.LightRadius)
	}
	seen := make(map[int]bool)
	for _, b := range c.Assets.Blocks {
		if b.ID <= 0 || b.ID > 0xFFFF {
			bad("block %q: id %d", b.Name, b.ID)
		}
		if seen[b.ID] {
			bad("block %q: duplicate id %d", b.Name, b.ID)
		}
		seen[b.ID] = true
	}
	return errors.Join(errs...)
}

// ClampRenderDistance limits d to [MinRenderDistance, MaxRenderDistance].
func ClampRenderDistance(d int) int {
	return min(max(d, MinRenderDistance), MaxRenderDistance)
}
