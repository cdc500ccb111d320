// Command voxelshade opens a window onto a streamed voxel world lit by a
// per-texel ray traced sun and block lights.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/xlab/closer"
	"go.uber.org/zap"

	"voxelshade/internal/config"
	"voxelshade/internal/game"
	"voxelshade/internal/gpu/glgpu"
	"voxelshade/internal/input"
	"voxelshade/internal/logging"
	"voxelshade/internal/meshing"
	"voxelshade/internal/metrics"
	"voxelshade/internal/registry"
	"voxelshade/internal/render"
	"voxelshade/internal/world"
)

func init() {
	// glfw and GL calls must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	defer closer.Close()

	configPath := flag.String("config", "", "path to a YAML config file")
	logLevel := flag.String("log-level", "", "override log.level")
	metricsAddr := flag.String("metrics-addr", "", "override metrics.addr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		closer.Fatalln(err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		closer.Fatalln(err)
	}
	closer.Bind(func() { _ = log.Sync() })

	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, reg, log.Named("metrics")); err != nil {
				log.Error("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	if err := run(ctx, cfg, log, m); err != nil {
		log.Error("exiting", zap.Error(err))
		closer.Fatalln(err)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger, m *metrics.Metrics) error {
	reg, err := registry.FromConfig(cfg.Assets.Blocks)
	if err != nil {
		return err
	}
	a, err := reg.BuildAtlas(ctx, os.DirFS(cfg.Assets.Dir), log.Named("atlas"))
	if err != nil {
		return err
	}
	gen, err := world.NewGenerator(cfg.World.Generator, cfg.World.Seed)
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	window, err := game.SetupWindow(cfg.Window)
	if err != nil {
		return err
	}
	defer window.Destroy()

	dev, err := glgpu.New(log.Named("gl"), glgpu.Options{Debug: cfg.Window.GLDebug})
	if err != nil {
		return err
	}
	defer dev.Close()

	opts := meshing.DefaultOptions()
	opts.EmitAtUnloaded = cfg.World.EmitAtUnloaded
	opts.LightRadius = cfg.Lighting.LightRadius
	manager := world.NewManager(world.ManagerConfig{
		Atlas:     a,
		Materials: reg,
		Generator: gen,
		Mesh:      opts,
		Logger:    log.Named("world"),
		Metrics:   m,
	})

	renderer, err := render.NewRenderer(dev, manager, a, cfg.Lighting, log.Named("render"), m)
	if err != nil {
		return err
	}
	defer renderer.Release()

	streamer := world.NewStreamer(manager, cfg.World.RenderDistance, cfg.World.VerticalDistance, cfg.World.MaxAddsPerFrame)

	log.Info("starting",
		zap.String("generator", cfg.World.Generator),
		zap.Int("atlas_rows", a.Rows()),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height))

	app := game.NewApp(game.Options{
		Window:   window,
		Input:    input.NewManager(),
		Config:   cfg,
		Logger:   log.Named("game"),
		Manager:  manager,
		Streamer: streamer,
		Renderer: renderer,
	})
	return app.Run(ctx)
}
