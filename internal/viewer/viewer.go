// Package viewer implements the interactive mesh viewer loop.
package viewer

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshport/internal/assets"
	"github.com/Faultbox/meshport/internal/config"
	"github.com/Faultbox/meshport/internal/engine/camera"
	"github.com/Faultbox/meshport/internal/engine/debug"
	"github.com/Faultbox/meshport/internal/engine/ingest"
	"github.com/Faultbox/meshport/internal/engine/loader"
	"github.com/Faultbox/meshport/internal/engine/model"
	"github.com/Faultbox/meshport/internal/engine/renderer"
	"github.com/Faultbox/meshport/internal/engine/scene"
	"github.com/Faultbox/meshport/internal/engine/window"
	"github.com/Faultbox/meshport/internal/logger"
)

const title = "meshport"

// Viewer is the main viewer instance.
type Viewer struct {
	cfg   *config.Config
	paths []string
	log   *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	objects  *scene.ObjectRenderer
	loader   *loader.Coordinator
	finder   *assets.Finder
	watcher  *Watcher

	dataset  loader.Dataset
	composer *model.TransformComposer
	camera   *camera.OrbitCamera
	shots    *debug.ScreenshotCapture
	progress loadProgress

	running bool
}

// New creates the window, GL state and loader, then issues the first load.
func New(cfg *config.Config, paths []string) (*Viewer, error) {
	v := &Viewer{
		cfg:      cfg,
		paths:    paths,
		log:      logger.Named("viewer"),
		composer: model.NewTransformComposer(),
		camera:   newCamera(cfg),
		shots:    debug.NewScreenshotCapture(cfg.Graphics.ScreenshotDir, title),
	}

	v.log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Strings("files", paths),
	)

	var err error
	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer needs the GL context created by the window
	width, height := v.window.GetSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: cfg.Graphics.ClearColor,
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.objects, err = scene.NewObjectRenderer()
	if err != nil {
		v.Close()
		return nil, err
	}
	v.objects.LightDirection = mgl32.Vec4(cfg.Render.LightDirection)

	v.finder = assets.NewFinder(cfg.Assets.SearchPaths...)
	v.loader = loader.NewCoordinator(ingest.New(v.finder))

	if cfg.Assets.Watch {
		v.watcher, err = NewWatcher(paths, cfg.Assets.WatchDebounce)
		if err != nil {
			v.log.Warn("hot reload disabled", zap.Error(err))
		}
	}

	if err := v.reload(); err != nil {
		v.Close()
		return nil, err
	}

	v.log.Info("viewer initialized")
	return v, nil
}

// Run starts the frame loop and returns when the window is closed.
func (v *Viewer) Run() error {
	v.running = true

	frameCount := 0
	fpsTimer := time.Now()

	for v.running {
		ev := v.window.PollEvents()
		if ev.Quit {
			v.running = false
			break
		}
		if ev.Resized {
			v.renderer.Resize(v.window.GetSize())
		}
		if ev.Reload {
			v.requestReload("key")
		}
		if ev.Fit {
			v.camera = fitCamera(v.cfg, &v.dataset, v.composer.Matrix())
		}
		if ev.DragX != 0 || ev.DragY != 0 {
			v.camera.HandleDrag(ev.DragX, ev.DragY)
		}
		if ev.Wheel != 0 {
			v.camera.HandleZoom(ev.Wheel)
		}
		if v.watcher != nil {
			select {
			case <-v.watcher.C:
				v.requestReload("watch")
			default:
			}
		}

		v.update()
		v.render()
		if ev.Capture {
			v.capture()
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// Close releases GPU resources and stops the loader.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.watcher != nil {
		v.watcher.Close()
	}
	if v.loader != nil {
		v.loader.Close()
	}
	if v.objects != nil {
		v.dataset.Release(v.objects)
		v.objects.Destroy()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) reload() error {
	_, err := v.loader.Load(v.paths, v.progress.begin(len(v.paths)))
	return err
}

func (v *Viewer) requestReload(reason string) {
	v.log.Info("reloading", zap.String("trigger", reason))
	v.finder.Reset()
	if err := v.reload(); err != nil {
		v.log.Error("reload failed", zap.Error(err))
	}
}

func (v *Viewer) update() {
	if v.loader.Drain(&v.dataset, v.objects) {
		v.log.Info("dataset uploaded",
			zap.Int("assets", len(v.dataset.Assets)),
			zap.Int("groups", v.dataset.NumGroups()),
		)
	}

	st := v.loader.Status()
	v.window.SetTitle(windowTitle(v.paths, st, v.progress.get()))

	if v.dataset.Ready {
		v.composer.Update(v.dataset.Bounds, placement(v.cfg), mgl32.Ident4())
	}
}

// capture saves the frame just rendered, before the swap.
func (v *Viewer) capture() {
	pixels, w, h := v.renderer.ReadPixels()
	name, err := v.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("file", name))
}

func (v *Viewer) render() {
	v.renderer.Begin()

	if v.dataset.Ready {
		view := v.camera.ViewMatrix()
		proj := projection(v.cfg, v.renderer.Aspect())
		cc := mgl32.Vec4(v.cfg.Render.ColorCorrection)
		for _, pass := range passes(v.cfg) {
			v.renderer.BeginPass(pass)
			v.objects.Draw(&v.dataset, v.composer.Matrix(), view, proj, cc, pass)
		}
	}

	v.renderer.End()
}

// placement converts the configured placement to model parameters.
func placement(cfg *config.Config) model.Placement {
	p := cfg.Placement
	return model.Placement{
		Offset:          mgl32.Vec3(p.Offset),
		Scale:           p.Scale,
		RotationDegrees: p.RotationDegrees,
	}
}

// passes returns the enabled draw passes, opaque first.
func passes(cfg *config.Config) []model.Pass {
	var out []model.Pass
	if cfg.Render.Opaque {
		out = append(out, model.PassOpaque)
	}
	if cfg.Render.Transparent {
		out = append(out, model.PassTransparent)
	}
	return out
}

// newCamera looks at the fitted model from the front and slightly above.
// The model is scaled to at most 0.25 units and rests on y = 0.
func newCamera(cfg *config.Config) *camera.OrbitCamera {
	c := camera.NewOrbitCamera(cfg.Render.CameraDistance)
	c.Center = mgl32.Vec3{0, 0.1, 0}
	return c
}

// fitCamera frames the dataset as drawn with model matrix m. Without a
// ready dataset it returns the default camera.
func fitCamera(cfg *config.Config, ds *loader.Dataset, m mgl32.Mat4) *camera.OrbitCamera {
	c := newCamera(cfg)
	if !ds.Ready || !ds.Bounds.Valid {
		return c
	}
	lo, hi := worldBounds(ds.Bounds, m)
	c.FitToBounds(lo, hi, cfg.Graphics.FOVDegrees)
	return c
}

// worldBounds returns the axis-aligned box around the eight corners of b
// transformed by m.
func worldBounds(b model.Bounds, m mgl32.Mat4) (lo, hi mgl32.Vec3) {
	for i := 0; i < 8; i++ {
		corner := b.Min
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		p := mgl32.TransformCoordinate(corner, m)
		if i == 0 {
			lo, hi = p, p
			continue
		}
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	return lo, hi
}

func projection(cfg *config.Config, aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(cfg.Graphics.FOVDegrees), aspect, 0.01, 100)
}

// loadProgress tracks the file count of the most recent load request.
// Each request writes to its own counter, so callbacks from a superseded
// request never reach get.
type loadProgress struct {
	cur atomic.Pointer[atomic.Uint64] // done<<32 | total
}

// begin switches to a new request of total files and returns its callback.
func (p *loadProgress) begin(total int) loader.ProgressFunc {
	c := new(atomic.Uint64)
	c.Store(packProgress(0, total))
	p.cur.Store(c)
	return func(done, total int) {
		c.Store(packProgress(done, total))
	}
}

func (p *loadProgress) get() [2]int {
	c := p.cur.Load()
	if c == nil {
		return [2]int{}
	}
	return unpackProgress(c.Load())
}

func packProgress(done, total int) uint64 {
	return uint64(uint32(done))<<32 | uint64(uint32(total))
}

func unpackProgress(p uint64) [2]int {
	return [2]int{int(p >> 32), int(uint32(p))}
}

// windowTitle shows the loaded file or the load progress.
func windowTitle(paths []string, st loader.Status, progress [2]int) string {
	name := title
	if len(paths) == 1 {
		name = fmt.Sprintf("%s - %s", title, filepath.Base(paths[0]))
	} else if len(paths) > 1 {
		name = fmt.Sprintf("%s - %d files", title, len(paths))
	}

	switch st.State {
	case loader.Idle, loader.Running:
		return fmt.Sprintf("%s (loading %d/%d)", name, progress[0], progress[1])
	case loader.Failed:
		return name + " (load failed)"
	}
	if st.Failed > 0 {
		return fmt.Sprintf("%s (%d skipped)", name, st.Failed)
	}
	return name
}
