package main

import (
	"fmt"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/Hafiznapster/orbiterm/pkg/viewer"
)

// HUD draws a status overlay on top of the rendered frame: FPS and
// filename up top, animation and mode state along the bottom.
type HUD struct {
	filename  string
	polyCount int
	fps       float64
	fpsFrames int
	fpsTime   time.Time
	visible   bool

	fpsStyle   lipgloss.Style
	titleStyle lipgloss.Style
	polyStyle  lipgloss.Style
	clipStyle  lipgloss.Style
	modeStyle  lipgloss.Style
	hintStyle  lipgloss.Style
}

// NewHUD creates a HUD for the given asset.
func NewHUD(filename string, polyCount int) *HUD {
	base := lipgloss.NewStyle().Background(lipgloss.Color("#000000"))
	return &HUD{
		filename:  filename,
		polyCount: polyCount,
		fpsTime:   time.Now(),
		visible:   true,

		fpsStyle:   base.Foreground(lipgloss.Color("#5fff5f")),
		titleStyle: base.Bold(true).Foreground(lipgloss.Color("#ffffff")),
		polyStyle:  base.Bold(true).Foreground(lipgloss.Color("#5fffff")),
		clipStyle:  base.Foreground(lipgloss.Color("#ffff87")),
		modeStyle:  base.Foreground(lipgloss.Color("#ffffff")),
		hintStyle:  base.Faint(true).Foreground(lipgloss.Color("#ffff87")),
	}
}

// Toggle flips HUD visibility.
func (h *HUD) Toggle() {
	h.visible = !h.visible
}

// UpdateFPS updates the FPS counter (call once per frame).
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

func moveTo(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row, col)
}

// Render draws the HUD overlay directly to the terminal, on top of the
// frame the terminal renderer just flushed.
func (h *HUD) Render(width, height int, v *viewer.Viewer) {
	const clearLine = "\x1b[2K"

	// Always clear the HUD rows so toggling off works.
	fmt.Print(moveTo(1, 1) + clearLine)
	fmt.Print(moveTo(height, 1) + clearLine)

	if !h.visible {
		return
	}

	// Top left: FPS
	fmt.Print(moveTo(1, 1) + h.fpsStyle.Render(fmt.Sprintf(" %.0f FPS ", h.fps)))

	// Top middle: filename
	title := h.titleStyle.Render(" " + h.filename + " ")
	titleCol := max((width-lipgloss.Width(title))/2, 1)
	fmt.Print(moveTo(1, titleCol) + title)

	// Top right: polygon count
	poly := h.polyStyle.Render(fmt.Sprintf(" %d polys ", h.polyCount))
	polyCol := max(width-lipgloss.Width(poly), 1)
	fmt.Print(moveTo(1, polyCol) + poly)

	// Bottom left: animation state
	fmt.Print(moveTo(height, 1) + h.clipStyle.Render(" "+clipStatus(v)+" "))

	// Bottom middle: render mode
	mode := h.modeStyle.Render(" " + modeName(v.Mode) + " ")
	modeCol := max((width-lipgloss.Width(mode))/2, 1)
	fmt.Print(moveTo(height, modeCol) + mode)

	// Bottom right: key hint
	hint := h.hintStyle.Render(" space: play  tab: clip  ?: hud ")
	hintCol := max(width-lipgloss.Width(hint), 1)
	fmt.Print(moveTo(height, hintCol) + hint)
}

func clipStatus(v *viewer.Viewer) string {
	if v.Mixer == nil || v.Mixer.Clip() == nil {
		return "no animation"
	}
	clip := v.Mixer.Clip()
	state := "⏸"
	if v.Mixer.Playing() {
		state = "▶"
	}
	return fmt.Sprintf("%s %s %.1fs", state, clip.Name, v.Mixer.Time())
}

func modeName(m viewer.RenderMode) string {
	switch m {
	case viewer.ModeWireframe:
		return "wireframe"
	case viewer.ModeFlat:
		return "flat"
	default:
		return "textured"
	}
}
