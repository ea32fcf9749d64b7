package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// TerminalRenderer pushes framebuffer contents to a terminal screen.
// Each terminal cell shows two vertical pixels via the ▀ half-block.
type TerminalRenderer struct {
	term   *uv.Terminal
	width  int // Terminal columns
	height int // Terminal rows
}

// NewTerminalRenderer creates a renderer for the given terminal size.
func NewTerminalRenderer(term *uv.Terminal, width, height int) *TerminalRenderer {
	return &TerminalRenderer{
		term:   term,
		width:  width,
		height: height,
	}
}

// FramebufferSize returns the pixel dimensions matching the terminal:
// full width, double height.
func (tr *TerminalRenderer) FramebufferSize() (width, height int) {
	return tr.width, tr.height * 2
}

// Render converts the framebuffer to terminal cells.
func (tr *TerminalRenderer) Render(fb *Framebuffer) {
	fb.Draw(tr.term, uv.Rect(0, 0, tr.width, tr.height))
}

// Flush displays the pending cells on the terminal.
func (tr *TerminalRenderer) Flush() error {
	return tr.term.Display()
}

// Draw converts the framebuffer to terminal cells and draws them on the
// screen. The framebuffer height should be 2x the terminal height.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	// Each terminal row covers 2 framebuffer rows:
	// ▀ with fg=top pixel and bg=bottom pixel.
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := row * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X && col < fb.Width; col++ {
			topColor := fb.GetPixel(col, topY)
			botColor := fb.GetPixel(col, botY)

			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(topColor),
					Bg: rgbaToColor(botColor),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// rgbaToColor converts color.RGBA to Go's color.Color interface.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil // Transparent = no color
	}
	return c
}

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// Colors for convenience
var (
	ColorBlack = color.RGBA{0, 0, 0, 255}
	ColorWhite = color.RGBA{255, 255, 255, 255}
	ColorRed   = color.RGBA{255, 0, 0, 255}
	ColorGreen = color.RGBA{0, 255, 0, 255}
	ColorBlue  = color.RGBA{0, 0, 255, 255}
	ColorGray  = color.RGBA{128, 128, 128, 255}
)

// RGB creates a color from RGB values.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}

// RGBA creates a color from RGBA values.
func RGBA(r, g, b, a uint8) color.RGBA {
	return color.RGBA{r, g, b, a}
}
