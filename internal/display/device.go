package display

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/oledclock/oledclock/internal/config"
)

// Device is the drawing surface the renderer pushes frames to. It is the
// subset of periph.io's display driver the daemon needs, so *ssd1306.Dev
// satisfies it directly and tests can swap in fakes.
type Device interface {
	String() string
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// Open opens the configured display backend. The returned close function
// releases the underlying bus (a no-op for the terminal backend).
func Open(cfg config.DisplaySettings) (Device, func() error, error) {
	switch cfg.Backend {
	case "term":
		w, h := cfg.DisplaySize()
		return NewTerm(nil, w, h), func() error { return nil }, nil
	case "oled":
		return openOLED(cfg)
	default:
		return nil, nil, fmt.Errorf("unknown display backend %q", cfg.Backend)
	}
}

func openOLED(cfg config.DisplaySettings) (Device, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	// Empty bus name selects the first available I²C bus.
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open i2c bus: %w", err)
	}

	// The periph ssd1306 driver always talks to address 0x3C; Validate has
	// already rejected any other configured address.
	opts := ssd1306.DefaultOpts
	opts.W, opts.H = cfg.DisplaySize()
	if opts.H == 32 {
		// 32-row panels use the sequential COM pin configuration.
		opts.Sequential = true
	}

	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("failed to initialize ssd1306: %w", err)
	}

	return dev, bus.Close, nil
}
