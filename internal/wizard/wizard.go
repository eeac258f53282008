package wizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/oledclock/oledclock/internal/config"
)

// Styles shared by the wizard screens.
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#43BF6D"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)
)

const maxContentWidth = 72

// field is one wizard question.
type field struct {
	key      string
	label    string
	hint     string
	secret   bool
	optional bool
	validate func(string) error
	input    textinput.Model
}

// Model is the bubbletea model for the wizard.
type Model struct {
	store  *config.Store
	fields []field
	index  int
	errMsg string
	saved  bool
	failed error
	width  int
}

// New builds the wizard around an opened settings store.
func New(store *config.Store) Model {
	cur := store.Get()

	mk := func(value, placeholder string, secret bool, limit int) textinput.Model {
		in := textinput.New()
		in.SetValue(value)
		in.Placeholder = placeholder
		in.CharLimit = limit
		if secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '*'
		}
		return in
	}

	fields := []field{
		{
			key:   "ssid",
			label: "WiFi network name (SSID)",
			hint:  "leave empty to keep the device in setup mode",
			input: mk(cur.WiFi.SSID, "HomeNet", false, config.MaxSSIDLen),
			validate: func(v string) error {
				if len(v) > config.MaxSSIDLen {
					return fmt.Errorf("at most %d bytes", config.MaxSSIDLen)
				}
				return nil
			},
			optional: true,
		},
		{
			key:      "passphrase",
			label:    "WiFi passphrase",
			hint:     "empty for open networks",
			secret:   true,
			optional: true,
			input:    mk("", "", true, config.MaxPassphraseLen),
			validate: func(v string) error {
				if v != "" && len(v) < config.MinPassphraseLen {
					return fmt.Errorf("at least %d characters", config.MinPassphraseLen)
				}
				return nil
			},
		},
		{
			key:   "hostname",
			label: "Hostname",
			hint:  "the dashboard will be at http://<hostname>.local/",
			input: mk(cur.Hostname, "oledclock", false, 63),
			validate: func(v string) error {
				if v == "" {
					return fmt.Errorf("must not be empty")
				}
				if strings.ContainsAny(v, " .") {
					return fmt.Errorf("a bare name, no spaces or dots")
				}
				return nil
			},
		},
		{
			key:   "timezone",
			label: "Timezone",
			hint:  "IANA name, e.g. Europe/Amsterdam",
			input: mk(cur.Timezone, "UTC", false, 64),
			validate: func(v string) error {
				if _, err := time.LoadLocation(v); err != nil {
					return fmt.Errorf("unknown timezone %q", v)
				}
				return nil
			},
		},
		{
			key:      "mqtt_broker",
			label:    "MQTT broker URL",
			hint:     "empty disables telemetry, e.g. tcp://192.168.1.2:1883",
			optional: true,
			input:    mk(cur.MQTT.Broker, "", false, 128),
			validate: func(string) error { return nil },
		},
	}

	width := maxContentWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}

	m := Model{store: store, fields: fields, width: width}
	m.fields[0].input.Focus()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 && msg.Width < maxContentWidth {
			m.width = msg.Width
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			if m.saved || m.failed != nil {
				return m, tea.Quit
			}
			return m.advance()

		case tea.KeyShiftTab, tea.KeyUp:
			if m.index > 0 && !m.saved {
				m.fields[m.index].input.Blur()
				m.index--
				m.fields[m.index].input.Focus()
				m.errMsg = ""
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.fields[m.index].input, cmd = m.fields[m.index].input.Update(msg)
	return m, cmd
}

// advance validates the current field and moves on, saving after the last.
func (m Model) advance() (tea.Model, tea.Cmd) {
	f := &m.fields[m.index]
	if err := f.validate(strings.TrimSpace(f.input.Value())); err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	m.errMsg = ""

	if m.index < len(m.fields)-1 {
		f.input.Blur()
		m.index++
		m.fields[m.index].input.Focus()
		return m, nil
	}

	if err := m.save(); err != nil {
		m.failed = err
	} else {
		m.saved = true
	}
	return m, nil
}

// save maps the answers onto the stored settings and persists them.
func (m Model) save() error {
	next := m.store.Get()
	answers := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		answers[f.key] = strings.TrimSpace(f.input.Value())
	}

	next.WiFi.SSID = answers["ssid"]
	if answers["passphrase"] != "" {
		next.WiFi.Passphrase = answers["passphrase"]
	}
	if next.WiFi.SSID == "" {
		next.WiFi.Passphrase = ""
	}
	next.Hostname = answers["hostname"]
	next.Timezone = answers["timezone"]
	next.MQTT.Broker = answers["mqtt_broker"]
	next.MQTT.Enabled = answers["mqtt_broker"] != ""

	return m.store.Replace(next)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("oledclock setup") + "\n\n")

	if m.failed != nil {
		b.WriteString(errorStyle.Render("Save failed: "+m.failed.Error()) + "\n")
		b.WriteString(helpStyle.Render("enter/esc to exit"))
		return b.String()
	}
	if m.saved {
		b.WriteString(doneStyle.Render("✓ Settings saved to "+m.store.Path()) + "\n")
		b.WriteString("Start the clock with: oledclock run\n")
		b.WriteString(helpStyle.Render("enter/esc to exit"))
		return b.String()
	}

	for i := range m.fields {
		f := &m.fields[i]
		marker := "  "
		if i == m.index {
			marker = "> "
		}
		b.WriteString(marker + labelStyle.Render(f.label) + "\n")
		if i == m.index {
			b.WriteString("  " + f.input.View() + "\n")
			if f.hint != "" {
				b.WriteString("  " + labelStyle.Render(f.hint) + "\n")
			}
			if m.errMsg != "" {
				b.WriteString("  " + errorStyle.Render(m.errMsg) + "\n")
			}
		} else if i < m.index {
			val := f.input.Value()
			if f.secret && val != "" {
				val = strings.Repeat("*", len(val))
			}
			if val == "" {
				val = "(empty)"
			}
			b.WriteString("  " + doneStyle.Render(val) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter next · shift+tab back · esc quit"))
	return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
}

// Run launches the wizard and blocks until it exits.
func Run(store *config.Store) error {
	p := tea.NewProgram(New(store))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}
	return nil
}
