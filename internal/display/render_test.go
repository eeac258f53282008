package display

import (
	"image"
	"testing"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/oledclock/oledclock/internal/clock"
)

func litPixels(img *image1bit.VerticalLSB) int {
	n := 0
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			if img.BitAt(x, y) {
				n++
			}
		}
	}
	return n
}

func snapshotAt(h, m, s int) clock.Snapshot {
	now := time.Date(2026, 8, 27, h, m, s, 0, time.UTC)
	return clock.Snapshot{
		Now:      now,
		Hour:     h,
		Minute:   m,
		Second:   s,
		TimeText: now.Format("15:04:05"),
		HHMM:     now.Format("15:04"),
		DateText: now.Format("Mon 02 Jan 2006"),
		Zone:     "UTC",
		Synced:   true,
	}
}

func TestFrameLayoutsAreDistinct(t *testing.T) {
	r := NewRenderer(128, 64)
	snap := snapshotAt(12, 34, 56)

	setup := r.Frame(State{Layout: LayoutSetup, APName: "oledclock-setup", PortalURL: "http://10.42.0.1"})
	unsynced := r.Frame(State{Layout: LayoutUnsynced, SSID: "HomeNet"})
	synced := r.Frame(State{Layout: LayoutSynced, Snap: snap})

	for name, img := range map[string]*image1bit.VerticalLSB{
		"setup": setup, "unsynced": unsynced, "synced": synced,
	} {
		if litPixels(img) == 0 {
			t.Errorf("%s layout rendered an empty frame", name)
		}
	}

	if FramesEqual(setup, unsynced) || FramesEqual(unsynced, synced) || FramesEqual(setup, synced) {
		t.Error("different layouts rendered identical frames")
	}
}

func TestSyncedFrameChangesWithSeconds(t *testing.T) {
	r := NewRenderer(128, 64)

	a := r.Frame(State{Layout: LayoutSynced, Snap: snapshotAt(12, 34, 10)})
	b := r.Frame(State{Layout: LayoutSynced, Snap: snapshotAt(12, 34, 40)})

	if FramesEqual(a, b) {
		t.Error("seconds bar did not move between second 10 and 40")
	}
}

func TestSyncedFrameStableWithinSameState(t *testing.T) {
	r := NewRenderer(128, 64)
	st := State{Layout: LayoutSynced, Snap: snapshotAt(7, 8, 9), WiFiOK: true}

	a := r.Frame(st)
	b := r.Frame(st)
	if !FramesEqual(a, b) {
		t.Error("identical state rendered different frames")
	}
}

func TestColonBlinks(t *testing.T) {
	r := NewRenderer(128, 64)
	snap := snapshotAt(12, 34, 56)

	on := r.Frame(State{Layout: LayoutSynced, Snap: snap, Tick: 0})
	off := r.Frame(State{Layout: LayoutSynced, Snap: snap, Tick: 1})

	if FramesEqual(on, off) {
		t.Error("colon does not blink between ticks")
	}
}

func TestSmallPanelFits(t *testing.T) {
	r := NewRenderer(128, 32)
	img := r.Frame(State{Layout: LayoutSynced, Snap: snapshotAt(23, 59, 59), WiFiOK: true, MQTTOn: true, MQTTOK: true})

	if litPixels(img) == 0 {
		t.Error("128x32 synced frame is empty")
	}
	if img.Rect != image.Rect(0, 0, 128, 32) {
		t.Errorf("frame bounds = %v, want 128x32", img.Rect)
	}
}

func TestDrawStringScaledGeometry(t *testing.T) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 64, 64))
	drawStringScaled(img, 0, 0, 3, "1")

	scaled := litPixels(img)

	base := image1bit.NewVerticalLSB(image.Rect(0, 0, 64, 64))
	drawString(base, 0, face.Ascent, "1")
	unscaled := litPixels(base)

	if scaled != unscaled*9 {
		t.Errorf("3x scale lit %d pixels, want %d (9x the %d base pixels)", scaled, unscaled*9, unscaled)
	}
}

func TestFramesEqualNil(t *testing.T) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 8, 8))
	if FramesEqual(img, nil) || FramesEqual(nil, img) {
		t.Error("frame equal to nil")
	}
	if !FramesEqual(nil, nil) {
		t.Error("nil frames not equal to each other")
	}
}
