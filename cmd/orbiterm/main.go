// orbiterm - animated 3D model viewer for the terminal
// Loads a GLB asset, frames it, and plays its embedded animation while
// the camera orbits under mouse control.
//
// Controls:
//
//	Mouse drag  - Orbit camera around the model
//	Scroll      - Zoom in/out
//	Space       - Play/pause animation
//	Tab         - Next animation clip
//	T           - Toggle texture on/off
//	X           - Toggle wireframe mode
//	G           - Toggle ground grid
//	A           - Toggle world axes
//	R           - Reset view
//	S           - Save screenshot (PNG)
//	?           - Toggle HUD overlay
//	Esc/Q       - Quit
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/Hafiznapster/orbiterm/pkg/render"
	"github.com/Hafiznapster/orbiterm/pkg/viewer"
)

type options struct {
	fps      int
	bgColor  string
	texture  string
	clip     int
	autoplay bool
}

func main() {
	opts := options{}

	cmd := &cobra.Command{
		Use:          "orbiterm <model.glb>",
		Short:        "orbiterm - animated 3D model viewer for the terminal",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.fps, "fps", 60, "target frames per second")
	cmd.Flags().StringVar(&opts.bgColor, "bg", "30,30,40", "background color (R,G,B)")
	cmd.Flags().StringVar(&opts.texture, "texture", "", "texture image (PNG/JPG) replacing material textures")
	cmd.Flags().IntVar(&opts.clip, "clip", 0, "animation clip to start with")
	cmd.Flags().BoolVar(&opts.autoplay, "autoplay", true, "start with the animation playing")

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}

func run(modelPath string, opts options) error {
	if opts.fps < 1 {
		opts.fps = 60
	}

	var bgR, bgG, bgB uint8 = 30, 30, 40
	fmt.Sscanf(opts.bgColor, "%d,%d,%d", &bgR, &bgG, &bgB)

	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	termRenderer := render.NewTerminalRenderer(term, width, height)
	fbWidth, fbHeight := termRenderer.FramebufferSize()

	v := viewer.New(fbWidth, fbHeight, opts.fps)
	v.Background = render.RGB(bgR, bgG, bgB)

	// Load everything before touching terminal modes so a bad asset
	// produces exactly one error line on a normal screen.
	if err := v.Load(modelPath); err != nil {
		return err
	}

	if opts.texture != "" {
		tex, err := render.LoadTexture(opts.texture)
		if err != nil {
			return fmt.Errorf("load texture: %w", err)
		}
		v.SetTextureOverride(tex)
	}

	if v.Mixer != nil && opts.clip > 0 {
		if err := v.Mixer.SetClip(opts.clip); err != nil {
			return err
		}
	}
	if v.Mixer != nil && !opts.autoplay && v.Mixer.Playing() {
		v.Mixer.TogglePlay()
	}

	fmt.Printf("Loaded: %s (%d vertices, %d triangles, %d clips)\n",
		v.Name(), v.Model.VertexCount(), v.Model.TriangleCount(), len(v.Model.Clips))

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	hud := NewHUD(v.Name(), v.Model.TriangleCount())

	// Context for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Mouse state
	var mouseDown bool
	var lastMouseX, lastMouseY int

	// mu serializes the event handler with the render loop: both sides
	// touch the viewer, the terminal renderer and the HUD.
	var mu sync.Mutex

	// Event handler
	go func() {
		for ev := range term.Events() {
			mu.Lock()
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				termRenderer = render.NewTerminalRenderer(term, width, height)
				fbWidth, fbHeight = termRenderer.FramebufferSize()
				v.Resize(fbWidth, fbHeight)

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("q"), ev.MatchString("ctrl+c"):
					mu.Unlock()
					cancel()
					return
				case ev.MatchString("space"):
					if v.Mixer != nil {
						v.Mixer.TogglePlay()
					}
				case ev.MatchString("tab"):
					if v.Mixer != nil {
						v.Mixer.NextClip()
					}
				case ev.MatchString("t"):
					v.TextureEnabled = !v.TextureEnabled
				case ev.MatchString("x"):
					v.ToggleWireframe()
				case ev.MatchString("m"):
					v.CycleMode()
				case ev.MatchString("g"):
					v.ShowGrid = !v.ShowGrid
				case ev.MatchString("a"):
					v.ShowAxes = !v.ShowAxes
				case ev.MatchString("r"):
					v.ResetView()
				case ev.MatchString("s"):
					name := fmt.Sprintf("orbiterm-%d.png", time.Now().Unix())
					_ = v.Screenshot(name)
				case ev.MatchString("?"), ev.MatchString("shift+/"):
					hud.Toggle()
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					dx := ev.X - lastMouseX
					dy := ev.Y - lastMouseY
					v.Orbit.Rotate(float64(dx)*0.03, float64(dy)*0.03)
					lastMouseX, lastMouseY = ev.X, ev.Y
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					v.Orbit.Zoom(1)
				case uv.MouseWheelDown:
					v.Orbit.Zoom(-1)
				}
			}
			mu.Unlock()
		}
	}()

	// Main loop
	targetDuration := time.Second / time.Duration(opts.fps)
	lastFrame := time.Now()

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now

		mu.Lock()
		v.Step(dt)

		termRenderer.Render(v.Framebuffer())
		if err := termRenderer.Flush(); err != nil {
			mu.Unlock()
			cleanup()
			return fmt.Errorf("flush: %w", err)
		}

		hud.UpdateFPS()
		hud.Render(width, height, v)
		mu.Unlock()

		// Frame timing
		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
