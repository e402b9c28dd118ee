// Command drwdemo opens a window and draws a scene file through the draw
// manager every frame.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"drawmgr/internal/backend/glreplay"
	"drawmgr/internal/config"
	"drawmgr/internal/draw"
	"drawmgr/internal/pacing"
	"drawmgr/internal/profiling"
	"drawmgr/internal/scene"
	"drawmgr/pkg/scenefile"
)

const (
	windowWidth  = 1280
	windowHeight = 720
)

func init() {
	runtime.LockOSThread()
}

func main() {
	scenePath := flag.String("scene", "scenes/demo.json", "scene file to draw")
	sortMode := flag.String("sort", "z", "transparent pass order: z, reverse or none")
	shaderDir := flag.String("shaders", "", "directory of extra <name>.vert/<name>.frag programs")
	fps := flag.Int("fps", config.GetFPSLimit(), "frame cap, 0 for none")
	debug := flag.Bool("debug", false, "log draw layer diagnostics")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	draw.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	config.SetFPSLimit(*fps)

	if err := run(*scenePath, *sortMode, *shaderDir); err != nil {
		fmt.Fprintln(os.Stderr, "drwdemo:", err)
		os.Exit(1)
	}
}

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(windowWidth, windowHeight, "drwdemo", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return nil, err
	}
	// Pacing is done by the limiter.
	glfw.SwapInterval(0)
	return window, nil
}

func run(scenePath, sortMode, shaderDir string) error {
	mode, err := scene.ParseSortMode(sortMode)
	if err != nil {
		return err
	}
	s, err := scenefile.Load(scenePath)
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		return err
	}
	draw.Logger().Info("gl context", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	assets, err := newGLAssets(shaderDir)
	if err != nil {
		return err
	}
	defer assets.delete()

	backend := glreplay.New()
	defer backend.Delete()

	m := draw.NewManager(draw.DefaultOptions())
	rec := scene.NewRecorder(s, assets)
	limiter := pacing.NewLimiter()
	clearColor := mgl32.Vec4{0.08, 0.09, 0.11, 1}

	frames := 0
	fpsTicker := time.NewTicker(time.Second)
	defer fpsTicker.Stop()

	for !window.ShouldClose() {
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
		}

		w, h := window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(w), int32(h))

		profiling.ResetFrame()
		if err := drawFrame(m, rec, backend, scene.Options{
			Sort:       mode,
			Aspect:     float32(w) / float32(max(h, 1)),
			ClearColor: &clearColor,
		}); err != nil {
			return err
		}

		window.SwapBuffers()
		glfw.PollEvents()
		limiter.Wait(window.GetAttrib(glfw.Focused) == glfw.False)

		frames++
		select {
		case <-fpsTicker.C:
			draw.Logger().Info("frame stats", "fps", frames, "profile", profiling.Report(4))
			frames = 0
		default:
		}
	}
	return nil
}

func drawFrame(m *draw.Manager, rec *scene.Recorder, b draw.Backend, opts scene.Options) error {
	if err := m.BeginFrame(); err != nil {
		return err
	}
	f, err := rec.Record(m, opts)
	if err != nil {
		return err
	}
	if err := m.EndFrame(b); err != nil {
		return err
	}
	return m.DrawPass(b, f.First)
}
