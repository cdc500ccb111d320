// Package game runs the interactive frame loop: input, fly camera, block
// interaction, chunk streaming and rendering.
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"voxelshade/internal/config"
	"voxelshade/internal/input"
	"voxelshade/internal/profiling"
	"voxelshade/internal/render"
	"voxelshade/internal/world"
)

const (
	slowFrame     = 50 * time.Millisecond
	statsInterval = 5 * time.Second
)

// Options are the collaborators of an App. All are required.
type Options struct {
	Window   *glfw.Window
	Input    *input.Manager
	Config   config.Config
	Logger   *zap.Logger
	Manager  *world.Manager
	Streamer *world.Streamer
	Renderer *render.Renderer
}

type App struct {
	window   *glfw.Window
	input    *input.Manager
	log      *zap.Logger
	manager  *world.Manager
	streamer *world.Streamer
	renderer *render.Renderer

	settings *config.RenderSettings
	camera   *render.Camera
	fly      FlyCamera
	sun      SunClock
	limiter  *FPSLimiter

	paused    bool
	lastTime  time.Time
	lastStats time.Time
}

func NewApp(o Options) *App {
	cfg := o.Config
	w, h := o.Window.GetFramebufferSize()
	cam := render.NewCamera(w, h)
	cam.FOV = cfg.Camera.FOV
	cam.NearPlane = cfg.Camera.Near
	cam.FarPlane = cfg.Camera.Far
	cam.Position = mgl32.Vec3(cfg.Camera.Start)

	settings := config.NewRenderSettings(cfg.World.RenderDistance)
	o.Streamer.SetRadius(settings.RenderDistance())

	o.Input.Attach(o.Window)
	return &App{
		window:   o.Window,
		input:    o.Input,
		log:      o.Logger,
		manager:  o.Manager,
		streamer: o.Streamer,
		renderer: o.Renderer,
		settings: settings,
		camera:   cam,
		fly:      FlyCamera{Speed: cfg.Camera.Speed, Sensitivity: cfg.Camera.Sensitivity},
		sun:      SunClock{Angle: cfg.Lighting.SunAngle, Speed: cfg.Lighting.SunSpeed},
		limiter:  NewFPSLimiter(cfg.Window.FPSLimit),
		lastTime: time.Now(),
	}
}

// Run drives frames until the window closes or ctx is cancelled. A render
// error ends the loop.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("frame loop started",
		zap.Int("render_distance", a.settings.RenderDistance()),
		zap.Float32("sun_angle", a.sun.Angle))
	for !a.window.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := a.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) tick() error {
	profiling.ResetFrame()
	start := time.Now()
	dt := start.Sub(a.lastTime).Seconds()
	a.lastTime = start

	glfw.PollEvents()
	a.handleActions()

	if !a.paused {
		a.fly.Update(a.camera, a.input, dt)
		a.sun.Advance(dt)
		a.streamer.Update(a.camera.Position)
	}

	// minimized windows have no framebuffer to draw into
	w, h := a.window.GetFramebufferSize()
	if w > 0 && h > 0 {
		a.camera.SetViewport(w, h)
		err := a.renderer.Render(render.FrameParams{
			Camera: a.camera,
			Width:  w,
			Height: h,
			Sun:    a.sun.Direction(),
		})
		if err != nil {
			a.log.Error("render failed", zap.Error(err))
			return fmt.Errorf("frame: %w", err)
		}
		a.window.SwapBuffers()
	}

	if d := time.Since(start); d > slowFrame {
		a.log.Debug("slow frame", zap.Duration("took", d), zap.String("top", profiling.TopN(5)))
	}
	a.logStats()

	a.input.PostUpdate()
	a.limiter.Wait(a.paused)
	return nil
}

func (a *App) handleActions() {
	in := a.input
	if in.JustPressed(input.ActionPause) {
		a.setPaused(!a.paused)
	}
	if a.paused {
		return
	}

	eye, dir := a.camera.Position, a.camera.Front()
	if in.JustPressed(input.ActionBreak) {
		if b, ok := BreakBlock(a.manager, eye, dir); ok {
			a.log.Debug("block broken", zap.Any("block", b))
		}
	}
	if in.JustPressed(input.ActionPlace) {
		if b, ok := PlaceAgainst(a.manager, eye, dir, PlaceBlock); ok {
			a.log.Debug("block placed", zap.Any("block", b))
		}
	}
	if in.JustPressed(input.ActionProbe) {
		a.probe(eye, dir)
	}

	if in.JustPressed(input.ActionToggleSun) {
		a.sun.Toggle()
		a.log.Info("sun animation", zap.Bool("frozen", a.sun.Frozen))
	}
	if in.JustPressed(input.ActionSunForward) {
		a.sun.Step(1)
	}
	if in.JustPressed(input.ActionSunBackward) {
		a.sun.Step(-1)
	}

	if in.JustPressed(input.ActionRenderDistanceUp) {
		a.setRenderDistance(a.settings.RenderDistance() + 1)
	}
	if in.JustPressed(input.ActionRenderDistanceDown) {
		a.setRenderDistance(a.settings.RenderDistance() - 1)
	}
}

func (a *App) setRenderDistance(d int) {
	d = a.settings.SetRenderDistance(d)
	a.streamer.SetRadius(d)
	a.log.Info("render distance", zap.Int("chunks", d))
}

func (a *App) setPaused(paused bool) {
	a.paused = paused
	if paused {
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	} else {
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	}
	// the cursor jumps when its mode changes
	a.input.ResetCursor()
}

// probe logs the CPU lighting result at the crosshair.
func (a *App) probe(eye, dir mgl32.Vec3) {
	ray, hit, ok := Pick(a.manager, eye, dir)
	if !ok {
		a.log.Info("probe: nothing in reach")
		return
	}
	light, ok := a.renderer.ShadeHit(ray, hit, a.sun.Direction())
	if !ok {
		a.log.Info("probe: no face at hit", zap.Any("block", hit.Voxel))
		return
	}
	a.log.Info("probe",
		zap.Any("block", hit.Voxel),
		zap.Float32s("normal", hit.Normal[:]),
		zap.Float32s("light", light[:]),
		zap.Float32("distance", hit.Distance))
}

func (a *App) logStats() {
	if time.Since(a.lastStats) < statsInterval {
		return
	}
	a.lastStats = time.Now()
	s := a.renderer.Stats()
	fields := []zap.Field{
		zap.Int("chunks", s.Loaded),
		zap.Int("visible", s.Visible),
		zap.Int("faces", s.Faces),
		zap.Int("tiles", a.renderer.Volume().Pool().InUse()),
	}
	if ps, err := profiling.ProcessStats(); err == nil {
		fields = append(fields,
			zap.Uint64("rss_bytes", ps.RSSBytes),
			zap.Float64("cpu_percent", ps.CPUPercent))
	}
	a.log.Debug("frame stats", fields...)
}
