package httpd

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"

	"go.uber.org/zap"

	"github.com/oledclock/oledclock/internal/config"
	"github.com/oledclock/oledclock/internal/logging"
	"github.com/oledclock/oledclock/internal/version"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st := s.cfg.Status()
	page := Expand(dashboardPage, map[string]string{
		"HOSTNAME": html.EscapeString(st.Hostname),
		"TIME":     st.Time,
		"DATE":     html.EscapeString(st.Date),
		"VERSION":  html.EscapeString(version.Version),
	})
	writeHTML(w, http.StatusOK, page)
}

func (s *Server) handleSettingsForm(w http.ResponseWriter, r *http.Request) {
	cur := s.cfg.Store.Get()

	checked := ""
	if cur.MQTT.Enabled {
		checked = "checked"
	}

	// Secrets never round-trip into the page; their inputs stay empty and
	// an empty submission keeps the stored value.
	page := Expand(settingsPage, map[string]string{
		"SSID":          html.EscapeString(cur.WiFi.SSID),
		"HOSTNAME":      html.EscapeString(cur.Hostname),
		"TIMEZONE":      html.EscapeString(cur.Timezone),
		"NTP_SERVER":    html.EscapeString(cur.NTP.Server),
		"MQTT_ENABLED":  checked,
		"MQTT_BROKER":   html.EscapeString(cur.MQTT.Broker),
		"MQTT_USERNAME": html.EscapeString(cur.MQTT.Username),
		"MQTT_TOPIC":    html.EscapeString(cur.MQTT.TopicPrefix),
	})
	writeHTML(w, http.StatusOK, page)
}

func (s *Server) handleSettingsSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	next := s.cfg.Store.Get()
	applyForm(&next, r)

	if err := s.cfg.Store.Replace(next); err != nil {
		logging.Warn("Rejected settings submission", zap.Error(err))
		http.Error(w, fmt.Sprintf("invalid settings: %v", err), http.StatusBadRequest)
		return
	}

	page := Expand(savedPage, map[string]string{
		"HOSTNAME": html.EscapeString(next.Hostname),
	})
	writeHTML(w, http.StatusOK, page)
}

// applyForm copies submitted fields onto the current settings. Empty secret
// fields mean "keep what is stored"; everything else is taken as given and
// left to Validate to reject.
func applyForm(next *config.Settings, r *http.Request) {
	next.WiFi.SSID = r.PostFormValue("ssid")
	if pw := r.PostFormValue("passphrase"); pw != "" {
		next.WiFi.Passphrase = pw
	}
	if next.WiFi.SSID == "" {
		// Clearing the SSID un-provisions the device; a stale passphrase
		// would fail validation against the next network anyway.
		next.WiFi.Passphrase = ""
	}

	if hn := r.PostFormValue("hostname"); hn != "" {
		next.Hostname = hn
	}
	if tz := r.PostFormValue("timezone"); tz != "" {
		next.Timezone = tz
	}
	if srv := r.PostFormValue("ntp_server"); srv != "" {
		next.NTP.Server = srv
	}

	next.MQTT.Enabled = r.PostFormValue("mqtt_enabled") == "1"
	next.MQTT.Broker = r.PostFormValue("mqtt_broker")
	next.MQTT.Username = r.PostFormValue("mqtt_username")
	if pw := r.PostFormValue("mqtt_password"); pw != "" {
		next.MQTT.Password = pw
	}
	if topic := r.PostFormValue("mqtt_topic"); topic != "" {
		next.MQTT.TopicPrefix = topic
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.cfg.Status()); err != nil {
		logging.Error("Failed to encode status", zap.Error(err))
	}
}

func writeHTML(w http.ResponseWriter, status int, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(page))
}
