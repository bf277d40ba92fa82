package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Carmen-Shannon/oxy-amp/config"
	"github.com/Carmen-Shannon/oxy-amp/engine/camera"
	"github.com/Carmen-Shannon/oxy-amp/engine/profiler"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/swapchain"
	"github.com/Carmen-Shannon/oxy-amp/engine/scene"
	"github.com/Carmen-Shannon/oxy-amp/engine/window"
	"github.com/Carmen-Shannon/oxy-amp/log"
)

var logger = log.New("engine")

// engine implements the Engine interface.
// Everything runs on the thread that created it: the window loop polls input, updates the
// camera and ticks the renderer in turn.
type engine struct {
	cfg config.Config
	ctx context.Context

	window   window.Window
	camera   camera.Camera
	scene    scene.Scene
	renderer renderer.Renderer

	profiler         *profiler.Profiler
	profilingEnabled bool
	validate         bool
	report           io.Writer

	closeOnce sync.Once
}

// Engine is the main entry point for the renderer application.
// It owns the window, the camera, the prepared scene and the renderer.
type Engine interface {
	// Window returns the underlying window.
	Window() window.Window

	// Camera returns the free-look camera.
	Camera() camera.Camera

	// Scene returns the prepared host scene.
	Scene() scene.Scene

	// Renderer returns the renderer.
	Renderer() renderer.Renderer

	// Run drives frames until the window closes or a frame fails.
	//
	// Parameters:
	//   - ctx: passed to every frame's fence waits
	//
	// Returns:
	//   - error: the first fatal frame error
	Run(ctx context.Context) error

	// Close waits for the GPU, releases the renderer and destroys the window.
	// Safe to call multiple times.
	//
	// Returns:
	//   - error: a window teardown error
	Close() error
}

var _ Engine = &engine{}

// NewEngine prepares the scene, loads the shaders, opens the window and uploads everything to
// the GPU. Any failure is fatal and is returned wrapped with the step that failed.
//
// Parameters:
//   - cfg: the validated configuration
//   - options: functional options to configure the engine
//
// Returns:
//   - Engine: the engine, ready to Run
//   - error: a setup error
func NewEngine(cfg config.Config, options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		cfg:              cfg,
		ctx:              context.Background(),
		profilingEnabled: cfg.Profiling,
		validate:         cfg.Render.ValidateAmplitude,
		report:           os.Stdout,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profilingEnabled {
		e.profiler = profiler.NewProfiler()
	}

	presentMode, err := swapchain.ParsePresentMode(cfg.Render.PresentMode)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}

	e.scene, err = scene.NewScene(cfg.Model.Path,
		scene.WithFlipY(cfg.FlipY()),
		scene.WithWorkers(cfg.Spatial.Workers),
		scene.WithCellSize(cfg.Amplitude.CellSize),
		scene.WithInitialAmplitude(cfg.InitialAmplitude()),
	)
	if err != nil {
		return nil, err
	}

	shaders, err := shader.LoadSet(cfg.Shaders.Dir, cfg.Shaders.Name)
	if err != nil {
		return nil, fmt.Errorf("load shaders: %w", err)
	}
	checkWorkgroupSize(shaders.Compute.WorkgroupSize(), cfg.Amplitude.WorkgroupSize)

	e.window = window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	e.camera = camera.NewCamera(camera.WithViewport(e.window.Width(), e.window.Height()))

	e.renderer, err = renderer.NewRenderer(e.window,
		renderer.WithPresentMode(presentMode),
		renderer.WithForceSoftwareRenderer(cfg.Render.ForceFallbackAdapter),
		renderer.WithFramesInFlight(cfg.Render.FramesInFlight),
		renderer.WithFrameHook(e.prepareFrame),
	)
	if err != nil {
		e.window.Close()
		return nil, err
	}

	if err := e.renderer.Load(e.scene.Data(), shaders); err != nil {
		e.Close()
		return nil, err
	}

	if e.validate {
		if err := e.validateAmplitude(); err != nil {
			e.Close()
			return nil, err
		}
	}

	e.window.SetResizeCallback(e.resize)
	e.window.SetKeyDownCallback(func(keyCode uint32) {
		e.camera.Controller().HandleKey(keyCode)
	})
	e.window.SetUpdateCallback(e.tick)
	return e, nil
}

// checkWorkgroupSize warns when the compute shader's workgroup differs from the configured one.
// Dispatch sizes always follow the shader.
func checkWorkgroupSize(declared, configured [3]uint32) bool {
	if declared == configured {
		return true
	}
	logger.Warningf("compute shader declares @workgroup_size%v but the config expects %v; dispatching for the shader's size",
		declared, configured)
	return false
}

func (e *engine) validateAmplitude() error {
	report, err := e.renderer.ValidateAmplitude(e.scene.Amp())
	if err != nil {
		return fmt.Errorf("validate amplitude: %w", err)
	}
	WriteAmpReport(e.report, report)
	if !report.OK() {
		return fmt.Errorf("validate amplitude: %d of %d cells differ from the host copy", report.Mismatches, report.Cells)
	}
	logger.Notice("amplitude buffer matches the host copy")
	return nil
}

// prepareFrame runs after the slot's fence wait, so the slot's transform is free to overwrite.
func (e *engine) prepareFrame(slot int) error {
	e.camera.Update()
	t := e.camera.Transform()
	return e.renderer.Buffers().WriteTransform(slot, &t)
}

func (e *engine) tick() error {
	if err := e.renderer.Tick(e.ctx); err != nil {
		return fmt.Errorf("frame %d: %w", e.renderer.Scheduler().PresentedFrames(), err)
	}
	if e.profiler != nil {
		e.profiler.Tick(e.renderer.Scheduler().Recreations())
	}
	return nil
}

func (e *engine) resize(width, height int) {
	e.camera.SetViewport(width, height)
	e.renderer.NotifyResize(width, height)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run(ctx context.Context) error {
	e.ctx = ctx
	logger.Notice("entering frame loop")
	err := e.window.Run()
	logger.Noticef("frame loop ended after %d frames", e.renderer.Scheduler().PresentedFrames())
	return err
}

func (e *engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.renderer != nil {
			e.renderer.Release()
		}
		if e.window != nil {
			err = e.window.Close()
		}
	})
	return err
}
