package geometry

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// HUD geometry is built in pixels: origin top left, Y down, z = 0.

const (
	RECT_VERTEX_COUNT = 6
	// Fits one full overlay inside the default 128 KiB pass arena.
	HUD_VERTEX_CAPACITY = 5000

	HUD_MARGIN        float32 = 16
	HUD_LABEL_SCALE   float32 = 1.4
	HUD_LABEL_COLUMN  float32 = 66
	HUD_ROW_HEIGHT    float32 = 24
	HUD_DIGIT_SIZE    float32 = 8
	HUD_DIGIT_THICK   float32 = 1.6
	HUD_FPS_SIZE      float32 = 9
	HUD_FPS_THICK     float32 = 2
	HUD_TOGGLE_SIZE   float32 = 12
	HUD_TOGGLE_STEP   float32 = 16
	HUD_CROSSHAIR_LEN float32 = 30
	HUD_CROSSHAIR_TH  float32 = 4
	HUD_GRAPH_WIDTH   float32 = 320
	HUD_GRAPH_HEIGHT  float32 = 60
	// Frame times at or above this fill the graph.
	HUD_GRAPH_MAX_MS float32 = 33.3
	HUD_GRAPH_TARGET float32 = 16.6
)

var (
	HUDWhite  = math.Vec3{X: 1, Y: 1, Z: 1}
	HUDYellow = math.Vec3{X: 0.95, Y: 0.85, Z: 0.1}
	HUDOn     = math.Vec3{X: 0.1, Y: 0.7, Z: 0.1}
	HUDOff    = math.Vec3{X: 0.7, Y: 0.1, Z: 0.1}
	HUDDim    = math.Vec3{X: 0.35, Y: 0.35, Z: 0.35}
)

/** @brief Everything the HUD shows for one frame. */
type HUDInfo struct {
	FPS         float32
	FrameTimeMs float32
	Position    math.Vec3
	// Forward is the render camera's forward axis, yaw and pitch derive from it.
	Forward math.Vec3
	Speed   float32
	// Toggles in display order: light, shadows, grid, frustum, test cube, random cubes.
	Toggles    [6]bool
	CameraMode int
	ModeCount  int
	// History holds frame times in milliseconds, oldest first.
	History []float32
}

// AddRect emits two triangles covering [x0,x1] x [y0,y1].
func AddRect(b *LineBatch, x0, y0, x1, y1 float32, colour math.Vec3) bool {
	v := func(x, y float32) metadata.VertexPC {
		return metadata.VertexPC{Position: math.Vec3{X: x, Y: y}, Color: colour}
	}
	return b.Push(v(x0, y0), v(x1, y0), v(x1, y1), v(x0, y0), v(x1, y1), v(x0, y1))
}

func addH(b *LineBatch, x, y, w, t float32, c math.Vec3) {
	AddRect(b, x, y, x+w, y+t, c)
}

func addV(b *LineBatch, x, y, t, h float32, c math.Vec3) {
	AddRect(b, x, y, x+t, y+h, c)
}

// Segments a..g as bits 0..6: top, upper right, lower right, bottom, lower left, upper left, middle.
var sevenSegment = [10]uint8{
	0: 0b0111111,
	1: 0b0000110,
	2: 0b1011011,
	3: 0b1001111,
	4: 0b1100110,
	5: 0b1101101,
	6: 0b1111101,
	7: 0b0000111,
	8: 0b1111111,
	9: 0b1101111,
}

// DigitSegments is the number of lit segments for d, used by tests and sizing.
func DigitSegments(d int) int {
	n := 0
	for m := sevenSegment[d%10]; m != 0; m &= m - 1 {
		n++
	}
	return n
}

/**
 * @brief A seven segment digit s pixels wide and 2s tall with th thick bars.
 */
func AddDigit(b *LineBatch, d int, x, y, s, th float32, c math.Vec3) {
	seg := sevenSegment[d%10]
	x1, ym, y2 := x+s, y+s, y+2*s
	if seg&(1<<0) != 0 {
		addH(b, x+th, y, s-2*th, th, c)
	}
	if seg&(1<<1) != 0 {
		addV(b, x1-th, y+th, th, s-2*th, c)
	}
	if seg&(1<<2) != 0 {
		addV(b, x1-th, ym+th, th, s-2*th, c)
	}
	if seg&(1<<3) != 0 {
		addH(b, x+th, y2-th, s-2*th, th, c)
	}
	if seg&(1<<4) != 0 {
		addV(b, x, ym+th, th, s-2*th, c)
	}
	if seg&(1<<5) != 0 {
		addV(b, x, y+th, th, s-2*th, c)
	}
	if seg&(1<<6) != 0 {
		addH(b, x+th, ym-th*0.5, s-2*th, th, c)
	}
}

/**
 * @brief Draws value with one decimal place, up to 999.9. A leading zero
 * thousands digit is skipped and negative values get a minus bar. Returns the
 * x coordinate after the last digit.
 */
func AddNumber(b *LineBatch, value, x, y, s, th float32, c math.Vec3) float32 {
	if value < 0 {
		value = -value
		addH(b, x, y+s-th*0.5, s*0.8, th, c)
		x += s * 1.2
	}
	v10 := int(value*10 + 0.5)
	d1, d2, d3, d4 := (v10/1000)%10, (v10/100)%10, (v10/10)%10, v10%10
	dx := float32(0)
	if d1 != 0 {
		AddDigit(b, d1, x+dx, y, s, th, c)
		dx += s * 1.6
	}
	AddDigit(b, d2, x+dx, y, s, th, c)
	dx += s * 1.6
	AddDigit(b, d3, x+dx, y, s, th, c)
	AddRect(b, x+dx+s*0.9, y+2*s-th, x+dx+s*1.1, y+2*s, c)
	dx += s * 1.4
	AddDigit(b, d4, x+dx, y, s, th, c)
	return x + dx + s
}

/**
 * @brief Tessellates text from a bitmap font face into one quad per run of
 * set pixels on each glyph row. Returns the pen position after the text.
 */
func AddLabel(b *LineBatch, face font.Face, text string, x, y, scale float32, c math.Vec3) float32 {
	if face == nil {
		face = basicfont.Face7x13
	}
	dot := fixed.Point26_6{Y: face.Metrics().Ascent}
	for _, r := range text {
		dr, mask, maskp, advance, ok := face.Glyph(dot, r)
		if ok {
			addGlyph(b, dr, mask, maskp, x, y, scale, c)
		}
		dot.X += advance
	}
	return x + float32(dot.X)/64*scale
}

func addGlyph(b *LineBatch, dr image.Rectangle, mask image.Image, maskp image.Point, x, y, scale float32, c math.Vec3) {
	for py := 0; py < dr.Dy(); py++ {
		run := -1
		for px := 0; px <= dr.Dx(); px++ {
			lit := false
			if px < dr.Dx() {
				_, _, _, a := mask.At(maskp.X+px, maskp.Y+py).RGBA()
				lit = a >= 0x8000
			}
			switch {
			case lit && run < 0:
				run = px
			case !lit && run >= 0:
				x0 := x + float32(dr.Min.X+run)*scale
				x1 := x + float32(dr.Min.X+px)*scale
				y0 := y + float32(dr.Min.Y+py)*scale
				AddRect(b, x0, y0, x1, y0+scale, c)
				run = -1
			}
		}
	}
}

// AddCrosshair centres a plus sign on the screen.
func AddCrosshair(b *LineBatch, width, height float32) {
	cx, cy := width*0.5, height*0.5
	l, th := HUD_CROSSHAIR_LEN, HUD_CROSSHAIR_TH
	AddRect(b, cx-l, cy-th*0.5, cx+l, cy+th*0.5, HUDWhite)
	AddRect(b, cx-th*0.5, cy-l, cx+th*0.5, cy+l, HUDWhite)
}

/**
 * @brief One box per toggle along the bottom edge, green when on and red when
 * off, followed by one box per camera mode with the active mode in yellow.
 */
func AddToggles(b *LineBatch, height float32, toggles []bool, mode, modeCount int) {
	x := HUD_MARGIN
	y := height - HUD_MARGIN - HUD_TOGGLE_SIZE
	for _, on := range toggles {
		colour := HUDOff
		if on {
			colour = HUDOn
		}
		AddRect(b, x, y, x+HUD_TOGGLE_SIZE, y+HUD_TOGGLE_SIZE, colour)
		x += HUD_TOGGLE_STEP
	}
	x += HUD_TOGGLE_STEP
	for i := 0; i < modeCount; i++ {
		colour := HUDDim
		if i == mode {
			colour = HUDYellow
		}
		AddRect(b, x, y, x+HUD_TOGGLE_SIZE, y+HUD_TOGGLE_SIZE, colour)
		x += HUD_TOGGLE_STEP
	}
}

/**
 * @brief A bar per frame time sample anchored to the bottom of the graph box,
 * plus a marker line at the 60 Hz budget. Slow frames are drawn red.
 */
func AddFrameGraph(b *LineBatch, history []float32, x, y, w, h float32) {
	if len(history) == 0 {
		return
	}
	bar := w / float32(len(history))
	bottom := y + h
	for i, ms := range history {
		fill := math.Clamp(ms/HUD_GRAPH_MAX_MS, 0, 1) * h
		colour := HUDOn
		if ms > HUD_GRAPH_TARGET*1.5 {
			colour = HUDOff
		}
		x0 := x + float32(i)*bar
		AddRect(b, x0, bottom-fill, x0+bar, bottom, colour)
	}
	target := bottom - HUD_GRAPH_TARGET/HUD_GRAPH_MAX_MS*h
	AddRect(b, x, target-0.5, x+w, target+0.5, HUDYellow)
}

/**
 * @brief Builds the whole overlay: crosshair, FPS, camera readouts, frame time
 * graph and toggle row.
 */
func BuildHUD(b *LineBatch, face font.Face, width, height float32, info *HUDInfo) {
	AddCrosshair(b, width, height)

	x, y := HUD_MARGIN, HUD_MARGIN
	AddLabel(b, face, "FPS", x, y, HUD_LABEL_SCALE, HUDYellow)
	AddNumber(b, info.FPS, x+HUD_LABEL_COLUMN, y, HUD_FPS_SIZE, HUD_FPS_THICK, HUDWhite)

	step := HUD_DIGIT_SIZE * 5
	y += 32
	AddLabel(b, face, "POS", x, y, HUD_LABEL_SCALE, HUDYellow)
	nx := x + HUD_LABEL_COLUMN
	AddNumber(b, info.Position.X, nx, y, HUD_DIGIT_SIZE, HUD_DIGIT_THICK, HUDWhite)
	AddNumber(b, info.Position.Y, nx+step, y, HUD_DIGIT_SIZE, HUD_DIGIT_THICK, HUDWhite)
	AddNumber(b, info.Position.Z, nx+step*2, y, HUD_DIGIT_SIZE, HUD_DIGIT_THICK, HUDWhite)

	y += HUD_ROW_HEIGHT
	yaw := math.RadToDeg(math.Atan2(info.Forward.X, info.Forward.Z))
	pitch := math.RadToDeg(math.Asin(info.Forward.Y))
	AddLabel(b, face, "DIR", x, y, HUD_LABEL_SCALE, HUDYellow)
	AddNumber(b, yaw, nx, y, HUD_DIGIT_SIZE, HUD_DIGIT_THICK, HUDWhite)
	AddNumber(b, pitch, nx+step, y, HUD_DIGIT_SIZE, HUD_DIGIT_THICK, HUDWhite)

	y += HUD_ROW_HEIGHT
	AddLabel(b, face, "SPD", x, y, HUD_LABEL_SCALE, HUDYellow)
	AddNumber(b, info.Speed, nx, y, HUD_DIGIT_SIZE, HUD_DIGIT_THICK, HUDWhite)

	y += HUD_ROW_HEIGHT
	AddLabel(b, face, "MS", x, y, HUD_LABEL_SCALE, HUDYellow)
	AddNumber(b, info.FrameTimeMs, nx, y, HUD_DIGIT_SIZE, HUD_DIGIT_THICK, HUDWhite)

	if gx := width - HUD_MARGIN - HUD_GRAPH_WIDTH; gx > nx+step*3 {
		AddFrameGraph(b, info.History, gx, HUD_MARGIN, HUD_GRAPH_WIDTH, HUD_GRAPH_HEIGHT)
	}

	AddToggles(b, height, info.Toggles[:], info.CameraMode, info.ModeCount)
}
