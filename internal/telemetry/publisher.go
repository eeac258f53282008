package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/oledclock/oledclock/internal/clock"
	"github.com/oledclock/oledclock/internal/config"
	"github.com/oledclock/oledclock/internal/logging"
	"github.com/oledclock/oledclock/internal/version"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// qosAtLeastOnce for availability, qosAtMostOnce for the time payload;
	// a lost clock tick is replaced one interval later anyway.
	qosAtMostOnce  = 0
	qosAtLeastOnce = 1
)

// Payload is the JSON message published to <prefix>/time.
type Payload struct {
	Time     string `json:"time"`
	Date     string `json:"date"`
	Zone     string `json:"zone"`
	Unix     int64  `json:"unix"`
	Synced   bool   `json:"synced"`
	Hostname string `json:"hostname"`
	Version  string `json:"version"`
}

// SnapshotFunc supplies the current clock snapshot to publish.
type SnapshotFunc func() clock.Snapshot

// Publisher pushes clock snapshots to an MQTT broker on a fixed interval.
type Publisher struct {
	cfg      config.MQTTSettings
	hostname string
	snapshot SnapshotFunc
	client   mqtt.Client

	// newClient is a test seam around mqtt.NewClient.
	newClient func(*mqtt.ClientOptions) mqtt.Client
}

// NewPublisher creates a Publisher from the MQTT settings. Call Connect
// before Run.
func NewPublisher(cfg config.MQTTSettings, hostname string, snapshot SnapshotFunc) *Publisher {
	return &Publisher{
		cfg:       cfg,
		hostname:  hostname,
		snapshot:  snapshot,
		newClient: mqtt.NewClient,
	}
}

// statusTopic carries retained availability ("online"/"offline").
func (p *Publisher) statusTopic() string {
	return p.cfg.TopicPrefix + "/status"
}

// timeTopic carries the periodic clock payload.
func (p *Publisher) timeTopic() string {
	return p.cfg.TopicPrefix + "/time"
}

// Connect dials the broker and announces availability. The last will marks
// the device offline if the connection drops without a clean disconnect.
func (p *Publisher) Connect() error {
	opts := mqtt.NewClientOptions().
		AddBroker(p.cfg.Broker).
		SetClientID(fmt.Sprintf("oledclock-%s", p.hostname)).
		SetUsername(p.cfg.Username).
		SetPassword(p.cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetWill(p.statusTopic(), "offline", qosAtLeastOnce, true)

	opts.OnConnect = func(c mqtt.Client) {
		logging.Info("MQTT connected", zap.String("broker", p.cfg.Broker))
		c.Publish(p.statusTopic(), qosAtLeastOnce, true, "online")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logging.Warn("MQTT connection lost", zap.Error(err))
	}

	p.client = p.newClient(opts)
	tok := p.client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect to %s timed out", p.cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", p.cfg.Broker, err)
	}
	return nil
}

// Connected reports whether the client currently holds a broker connection.
func (p *Publisher) Connected() bool {
	return p.client != nil && p.client.IsConnectionOpen()
}

// Run publishes a snapshot every publish interval until ctx is cancelled,
// then marks the device offline and disconnects.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PublishInterval)
	defer ticker.Stop()

	p.publishSnapshot()
	for {
		select {
		case <-ctx.Done():
			p.Close()
			return
		case <-ticker.C:
			p.publishSnapshot()
		}
	}
}

func (p *Publisher) publishSnapshot() {
	if !p.Connected() {
		// Paho is reconnecting; skip this tick rather than queue.
		return
	}

	snap := p.snapshot()
	payload := Payload{
		Time:     snap.TimeText,
		Date:     snap.DateText,
		Zone:     snap.Zone,
		Unix:     snap.Now.Unix(),
		Synced:   snap.Synced,
		Hostname: p.hostname,
		Version:  version.Version,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal telemetry payload", zap.Error(err))
		return
	}

	tok := p.client.Publish(p.timeTopic(), qosAtMostOnce, false, data)
	if tok.WaitTimeout(publishTimeout) && tok.Error() != nil {
		logging.Warn("MQTT publish failed",
			zap.String("topic", p.timeTopic()),
			zap.Error(tok.Error()),
		)
	}
}

// Close publishes a retained offline marker and disconnects cleanly.
func (p *Publisher) Close() {
	if p.client == nil {
		return
	}
	if p.client.IsConnectionOpen() {
		tok := p.client.Publish(p.statusTopic(), qosAtLeastOnce, true, "offline")
		tok.WaitTimeout(publishTimeout)
	}
	p.client.Disconnect(250)
	logging.Info("MQTT disconnected")
}
