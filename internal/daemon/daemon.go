package daemon

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/oledclock/oledclock/internal/announce"
	"github.com/oledclock/oledclock/internal/clock"
	"github.com/oledclock/oledclock/internal/config"
	"github.com/oledclock/oledclock/internal/display"
	"github.com/oledclock/oledclock/internal/httpd"
	"github.com/oledclock/oledclock/internal/logging"
	"github.com/oledclock/oledclock/internal/netmode"
	"github.com/oledclock/oledclock/internal/portal"
	"github.com/oledclock/oledclock/internal/telemetry"
	"github.com/oledclock/oledclock/internal/version"
)

const (
	// renderInterval is the firmware's 500 ms redraw timer.
	renderInterval = 500 * time.Millisecond

	// reconnectInterval is the fixed WiFi link check in station mode.
	// There is no backoff, one check per tick.
	reconnectInterval = 30 * time.Second

	// dnsListen is where the captive DNS binds in setup mode.
	dnsListen = ":53"
)

// Options are the command-line overrides applied on top of the stored
// settings.
type Options struct {
	DisplayBackend string // "" = from settings
	Listen         string // "" = from settings
	Runner         netmode.Runner
}

// Daemon runs the clock until its context is cancelled.
type Daemon struct {
	store *config.Store
	opts  Options

	net       *netmode.Controller
	device    display.Device
	closeDev  func() error
	renderer  *display.Renderer
	prevFrame *image1bit.VerticalLSB
	started   time.Time
	tick      int
}

// New creates a Daemon around an opened settings store.
func New(store *config.Store, opts Options) *Daemon {
	return &Daemon{
		store:   store,
		opts:    opts,
		started: time.Now(),
	}
}

// Run opens the display and loops between modes until ctx is cancelled or
// a fatal error occurs.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings := d.effectiveSettings()
	logging.Info("Starting oledclock",
		zap.String("version", version.Full()),
		zap.String("hostname", settings.Hostname),
		zap.String("config", d.store.Path()),
	)

	dev, closeDev, err := display.Open(settings.Display)
	if err != nil {
		return fmt.Errorf("failed to open display: %w", err)
	}
	d.device = dev
	d.closeDev = closeDev
	w, h := settings.Display.DisplaySize()
	d.renderer = display.NewRenderer(w, h)

	d.net = netmode.NewController(d.opts.Runner, settings.WiFi.Interface)

	defer func() {
		// Blank the panel on the way out so a dead daemon is visible.
		if err := d.device.Halt(); err != nil {
			logging.Warn("Failed to halt display", zap.Error(err))
		}
		if err := d.closeDev(); err != nil {
			logging.Warn("Failed to close display bus", zap.Error(err))
		}
		logging.Sync()
	}()

	for {
		settings = d.effectiveSettings()
		mode := netmode.Decide(&settings)

		var err error
		switch mode {
		case netmode.ModeStation:
			err = d.runStation(ctx, settings)
		default:
			err = d.runSetup(ctx, settings)
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			logging.Info("Shutdown complete")
			return nil
		}
		// Settings changed; the loop re-evaluates the mode with fresh values.
		next := d.effectiveSettings()
		logging.LogModeChange(string(mode), string(netmode.Decide(&next)), "settings saved")
	}
}

// effectiveSettings is the stored settings with command-line overrides
// applied. Overrides are per-process and never written back.
func (d *Daemon) effectiveSettings() config.Settings {
	s := d.store.Get()
	if d.opts.DisplayBackend != "" {
		s.Display.Backend = d.opts.DisplayBackend
	}
	if d.opts.Listen != "" {
		s.HTTP.Listen = d.opts.Listen
	}
	return s
}

// runSetup brings up the provisioning stack and blocks until the settings
// change or ctx is cancelled.
func (d *Daemon) runSetup(ctx context.Context, settings config.Settings) error {
	apName := settings.Hostname + "-setup"
	logging.Info("Entering setup mode", zap.String("ap", apName))

	if err := d.net.StartHotspot(ctx, apName); err != nil {
		// No radio is fatal; without the hotspot the device cannot be
		// provisioned at all.
		return fmt.Errorf("setup mode: %w", err)
	}
	defer func() {
		if err := d.net.StopHotspot(context.Background()); err != nil {
			logging.Warn("Failed to stop hotspot", zap.Error(err))
		}
	}()

	dns, err := portal.New(dnsListen, netmode.HotspotIP)
	if err != nil {
		return fmt.Errorf("setup mode: %w", err)
	}
	dnsErr := make(chan error, 1)
	go func() { dnsErr <- dns.Start() }()
	defer func() {
		if err := dns.Shutdown(); err != nil {
			logging.Warn("Failed to stop captive DNS", zap.Error(err))
		}
	}()

	src := clock.NewSource(settings.Location(), nil)
	httpSrv := httpd.New(httpd.Config{
		Listen:     settings.HTTP.Listen,
		Store:      d.store,
		Status:     d.statusFunc(src, nil, nil, netmode.ModeSetup, settings),
		Setup:      func() bool { return true },
		PortalHost: netmode.HotspotIP,
	})
	httpErr := make(chan error, 1)
	go func() { httpErr <- httpSrv.Start() }()
	defer shutdownHTTP(httpSrv)

	render := time.NewTicker(renderInterval)
	defer render.Stop()

	// The on-panel address must carry a non-default port or the phone's
	// browser tries a closed port 80.
	portalHost := netmode.HotspotIP
	if port, err := announce.PortFromListen(settings.HTTP.Listen); err == nil && port != 80 {
		portalHost = fmt.Sprintf("%s:%d", portalHost, port)
	}
	portalURL := "http://" + portalHost + "/"
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.store.Changes():
			return nil
		case err := <-httpErr:
			return fmt.Errorf("setup mode: %w", err)
		case err := <-dnsErr:
			return fmt.Errorf("setup mode: %w", err)
		case <-render.C:
			d.draw(display.State{
				Layout:    display.LayoutSetup,
				Snap:      src.Snapshot(),
				APName:    apName,
				PortalURL: portalURL,
				Tick:      d.nextTick(),
			})
		}
	}
}

// runStation joins the stored network and runs the operational stack until
// the settings change or ctx is cancelled. A failed join falls back to
// setup mode for this cycle.
func (d *Daemon) runStation(ctx context.Context, settings config.Settings) error {
	if err := d.net.JoinStation(ctx, settings.WiFi); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logging.Warn("WiFi join failed, falling back to setup mode", zap.Error(err))
		return d.runSetup(ctx, settings)
	}

	modeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitor := clock.NewMonitor(settings.NTP.Server, settings.NTP.PollInterval)
	go monitor.Run(modeCtx)
	src := clock.NewSource(settings.Location(), monitor)

	var mqtt *telemetry.Publisher
	if settings.MQTT.Enabled {
		mqtt = telemetry.NewPublisher(settings.MQTT, settings.Hostname, src.Snapshot)
		if err := mqtt.Connect(); err != nil {
			// The clock still works without telemetry; paho keeps retrying
			// in the background once the first connect succeeds, so only
			// the initial dial failure is dropped here.
			logging.Warn("MQTT connect failed, telemetry disabled this cycle", zap.Error(err))
			mqtt = nil
		} else {
			go mqtt.Run(modeCtx)
		}
	}

	httpSrv := httpd.New(httpd.Config{
		Listen: settings.HTTP.Listen,
		Store:  d.store,
		Status: d.statusFunc(src, monitor, mqtt, netmode.ModeStation, settings),
	})
	httpErr := make(chan error, 1)
	go func() { httpErr <- httpSrv.Start() }()
	defer shutdownHTTP(httpSrv)

	if port, err := announce.PortFromListen(settings.HTTP.Listen); err == nil {
		ann, err := announce.Register(settings.Hostname, port, string(netmode.ModeStation))
		if err != nil {
			logging.Warn("mDNS registration failed", zap.Error(err))
		} else {
			defer ann.Shutdown()
		}
	} else {
		logging.Warn("Skipping mDNS registration", zap.Error(err))
	}

	render := time.NewTicker(renderInterval)
	defer render.Stop()
	reconnect := time.NewTicker(reconnectInterval)
	defer reconnect.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.store.Changes():
			return nil
		case err := <-httpErr:
			return fmt.Errorf("station mode: %w", err)
		case <-reconnect.C:
			d.net.EnsureStation(ctx, settings.WiFi)
		case <-render.C:
			snap := src.Snapshot()
			net := d.net.Status()
			d.draw(stationState(snap, net, mqtt, d.nextTick()))
		}
	}
}

// stationState derives the frame descriptor for one station-mode redraw.
func stationState(snap clock.Snapshot, net netmode.Status, mqtt *telemetry.Publisher, tick int) display.State {
	st := display.State{
		Layout: display.LayoutSynced,
		Snap:   snap,
		SSID:   net.SSID,
		IP:     net.IP,
		WiFiOK: net.Connected,
		Tick:   tick,
	}
	if !snap.Synced {
		st.Layout = display.LayoutUnsynced
	}
	if mqtt != nil {
		st.MQTTOn = true
		st.MQTTOK = mqtt.Connected()
	}
	return st
}

// draw renders st and pushes the frame only when it differs from the
// previous one.
func (d *Daemon) draw(st display.State) {
	frame := d.renderer.Frame(st)
	if display.FramesEqual(frame, d.prevFrame) {
		return
	}
	d.prevFrame = frame
	if err := d.device.Draw(frame.Bounds(), frame, frame.Bounds().Min); err != nil {
		logging.Warn("Display draw failed", zap.Error(err))
	}
}

func (d *Daemon) nextTick() int {
	d.tick++
	return d.tick
}

// statusFunc builds the closure the HTTP layer calls for /api/status and
// the WebSocket frames.
func (d *Daemon) statusFunc(src *clock.Source, monitor *clock.Monitor, mqtt *telemetry.Publisher, mode netmode.Mode, settings config.Settings) httpd.StatusFunc {
	return func() httpd.Status {
		snap := src.Snapshot()
		net := d.net.Status()

		st := httpd.Status{
			Time:          snap.TimeText,
			Date:          snap.DateText,
			Zone:          snap.Zone,
			Synced:        snap.Synced,
			UptimeSeconds: int64(time.Since(d.started).Seconds()),
			Mode:          string(mode),
			SSID:          net.SSID,
			IP:            net.IP,
			Connected:     net.Connected,
			Hostname:      settings.Hostname,
			Version:       version.Version,
		}
		if monitor != nil {
			ms := monitor.Status()
			st.NTP = &ms
		}
		if mqtt != nil {
			st.MQTT = httpd.MQTTStatus{Enabled: true, Connected: mqtt.Connected()}
		} else {
			st.MQTT = httpd.MQTTStatus{Enabled: settings.MQTT.Enabled}
		}
		return st
	}
}

func shutdownHTTP(s *httpd.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logging.Warn("HTTP shutdown failed", zap.Error(err))
	}
}
