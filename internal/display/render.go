package display

import (
	"bytes"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/oledclock/oledclock/internal/clock"
)

// Layout selects which screen the renderer draws.
type Layout int

const (
	// LayoutSetup shows the access point name and portal address while the
	// device waits to be provisioned.
	LayoutSetup Layout = iota
	// LayoutUnsynced shows a waiting screen until the first NTP sync.
	LayoutUnsynced
	// LayoutSynced is the normal clock face.
	LayoutSynced
)

func (l Layout) String() string {
	switch l {
	case LayoutSetup:
		return "setup"
	case LayoutUnsynced:
		return "unsynced"
	case LayoutSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// State is everything one frame needs. The daemon fills it on every render
// tick; the renderer holds no state of its own besides the frame buffer.
type State struct {
	Layout Layout
	Snap   clock.Snapshot

	// Setup layout fields.
	APName    string
	PortalURL string

	// Station mode status line.
	SSID   string
	IP     string
	WiFiOK bool
	MQTTOn bool
	MQTTOK bool

	// Tick increments every redraw; drives the spinner and blink phases.
	Tick int
}

var face = basicfont.Face7x13

var spinner = []byte{'|', '/', '-', '\\'}

// Renderer draws frames for a monochrome panel of fixed size.
type Renderer struct {
	w int
	h int
}

// NewRenderer creates a renderer for a w x h pixel panel.
func NewRenderer(w, h int) *Renderer {
	return &Renderer{w: w, h: h}
}

// Frame draws the layout for st into a fresh 1-bit frame buffer.
func (r *Renderer) Frame(st State) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, r.w, r.h))
	switch st.Layout {
	case LayoutSetup:
		r.drawSetup(img, st)
	case LayoutUnsynced:
		r.drawUnsynced(img, st)
	default:
		r.drawSynced(img, st)
	}
	return img
}

// FramesEqual reports whether two frame buffers hold identical pixels.
// The daemon skips the bus transfer when nothing changed.
func FramesEqual(a, b *image1bit.VerticalLSB) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Rect == b.Rect && bytes.Equal(a.Pix, b.Pix)
}

func (r *Renderer) drawSetup(img *image1bit.VerticalLSB, st State) {
	drawString(img, 2, 11, "SETUP MODE")
	// Blink the marker so a glance tells the panel is alive.
	if st.Tick%2 == 0 {
		drawString(img, r.w-9, 11, "*")
	}
	drawString(img, 2, 27, "AP: "+st.APName)
	if r.h >= 64 {
		drawString(img, 2, 43, "open")
		drawString(img, 2, 56, st.PortalURL)
	} else {
		drawString(img, 2, 27+13, st.PortalURL)
	}
}

func (r *Renderer) drawUnsynced(img *image1bit.VerticalLSB, st State) {
	drawString(img, 2, 11, "waiting for time")
	drawString(img, 2, 27, string(spinner[st.Tick%len(spinner)]))
	if r.h >= 64 {
		drawString(img, 2, 43, st.SSID)
		drawString(img, 2, 56, st.IP)
	}
}

func (r *Renderer) drawSynced(img *image1bit.VerticalLSB, st State) {
	scale := 3
	if r.h < 64 {
		scale = 2
	}

	// Big HH:MM, centered. Colon blinks on whole seconds.
	hhmm := st.Snap.HHMM
	if st.Tick%2 == 1 {
		hhmm = hhmm[:2] + " " + hhmm[3:]
	}
	bigW := len(hhmm) * face.Advance * scale
	x := (r.w - bigW) / 2
	if x < 0 {
		x = 0
	}
	drawStringScaled(img, x, 2, scale, hhmm)

	if r.h >= 64 {
		drawString(img, 2, 52, st.Snap.DateText)
	}

	// Status glyphs, top-right corner would collide with the big digits on
	// narrow panels, so they live bottom-right.
	glyphX := r.w - face.Advance - 1
	if st.MQTTOn {
		g := "m"
		if st.MQTTOK {
			g = "M"
		}
		drawString(img, glyphX, r.h-3, g)
		glyphX -= face.Advance + 1
	}
	if st.WiFiOK {
		drawString(img, glyphX, r.h-3, "W")
	}

	// Seconds progress bar along the bottom edge.
	barW := (r.w - 2) * st.Snap.Second / 59
	fillRect(img, 1, r.h-2, barW, 2)
}

// drawString draws s with the 7x13 base face; y is the text baseline.
func drawString(img *image1bit.VerticalLSB, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawStringScaled renders s at the base face size and blits it up by an
// integer factor. The base face is the only one shipped; scaling keeps the
// binary free of font assets while still giving readable big digits.
func drawStringScaled(img *image1bit.VerticalLSB, x, y, scale int, s string) {
	if scale <= 1 {
		drawString(img, x, y+face.Ascent, s)
		return
	}

	strip := image1bit.NewVerticalLSB(image.Rect(0, 0, len(s)*face.Advance, face.Height))
	drawString(strip, 0, face.Ascent, s)

	for sy := 0; sy < strip.Rect.Dy(); sy++ {
		for sx := 0; sx < strip.Rect.Dx(); sx++ {
			if !strip.BitAt(sx, sy) {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetBit(x+sx*scale+dx, y+sy*scale+dy, image1bit.On)
				}
			}
		}
	}
}

func fillRect(img *image1bit.VerticalLSB, x, y, w, h int) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			img.SetBit(x+dx, y+dy, image1bit.On)
		}
	}
}
