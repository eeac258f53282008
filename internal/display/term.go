package display

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"strings"
	"sync"
)

// Term renders frames as text, one character per pixel pair, for developing
// layouts without an OLED attached (oledclock run --display term).
type Term struct {
	out io.Writer
	w   int
	h   int

	mu sync.Mutex
}

// NewTerm creates a terminal display of the given pixel size writing to out.
// A nil out defaults to stdout.
func NewTerm(out io.Writer, w, h int) *Term {
	if out == nil {
		out = os.Stdout
	}
	return &Term{out: out, w: w, h: h}
}

func (t *Term) String() string {
	return fmt.Sprintf("term(%dx%d)", t.w, t.h)
}

func (t *Term) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.w, t.h)
}

// Draw prints the frame. Two vertical pixels are folded into one output rune
// so a 128x64 frame fits a normal terminal.
func (t *Term) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	b.WriteString("+" + strings.Repeat("-", t.w) + "+\n")
	for y := 0; y < t.h; y += 2 {
		b.WriteByte('|')
		for x := 0; x < t.w; x++ {
			top := lit(src, sp.X+x, sp.Y+y)
			bot := y+1 < t.h && lit(src, sp.X+x, sp.Y+y+1)
			switch {
			case top && bot:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bot:
				b.WriteRune('▄')
			default:
				b.WriteByte(' ')
			}
		}
		b.WriteString("|\n")
	}
	b.WriteString("+" + strings.Repeat("-", t.w) + "+\n")

	_, err := io.WriteString(t.out, b.String())
	return err
}

func (t *Term) Halt() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.out, "(display halted)")
	return err
}

func lit(src image.Image, x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(src.Bounds()) {
		return false
	}
	g := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
	return g.Y >= 0x80
}
