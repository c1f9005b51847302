// Package notifications handles system notifications and alerts
package notifications

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/mrcode/glucoplan/internal/logging"
	"github.com/mrcode/glucoplan/internal/models"
	"github.com/mrcode/glucoplan/internal/prediction"
)

// Alert type constants
const (
	alertUrgentLow  = "urgent_low"
	alertLow        = "low"
	alertUrgentHigh = "urgent_high"
	alertHigh       = "high"
)

// Alert is a threshold crossing found in a projection
type Alert struct {
	Type      string
	Value     float64 // mg/dL
	InMinutes float64 // 0 for the current reading
	Projected bool
}

// Manager handles glucose alerts and notifications
type Manager struct {
	settings      *models.Settings
	lastAlertTime map[string]time.Time
	mu            sync.Mutex

	// notify delivers a notification; replaced in tests
	notify func(title, message string, sound bool) error
}

// NewManager creates a new notification manager
func NewManager(settings *models.Settings) *Manager {
	return &Manager{
		settings:      settings,
		lastAlertTime: make(map[string]time.Time),
		notify:        sendNotification,
	}
}

// Evaluate lists the alerts a projection warrants. The current reading is
// checked first, then the lowest and highest projected values.
func (m *Manager) Evaluate(p *prediction.Projection) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evaluate(p)
}

func (m *Manager) evaluate(p *prediction.Projection) []Alert {
	if p == nil {
		return nil
	}

	var alerts []Alert
	seen := make(map[string]bool)
	add := func(a Alert) {
		if a.Type == "" || seen[a.Type] {
			return
		}
		seen[a.Type] = true
		alerts = append(alerts, a)
	}

	if p.CurrentBG != nil {
		add(Alert{Type: m.shouldAlert(m.settings.GetGlucoseStatus(int(*p.CurrentBG))), Value: *p.CurrentBG})
	}
	if p.LowInMinutes >= 0 {
		add(Alert{
			Type:      m.shouldAlert(m.settings.GetGlucoseStatus(int(p.MinProjected))),
			Value:     p.MinProjected,
			InMinutes: p.LowInMinutes,
			Projected: true,
		})
	}
	if p.HighInMinutes >= 0 {
		add(Alert{
			Type:      m.shouldAlert(m.settings.GetGlucoseStatus(int(p.MaxProjected))),
			Value:     p.MaxProjected,
			InMinutes: p.HighInMinutes,
			Projected: true,
		})
	}
	return alerts
}

// CheckAndNotify sends a notification for each alert not sent within the repeat window
func (m *Manager) CheckAndNotify(p *prediction.Projection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger := logging.Logger(logging.SourceNotify)
	now := time.Now()

	for _, alert := range m.evaluate(p) {
		// Check if we should repeat the alert
		if lastTime, ok := m.lastAlertTime[alert.Type]; ok {
			if m.settings.RepeatAlertMinutes <= 0 {
				// No repeat, only alert once per status change
				continue
			}
			repeatDuration := time.Duration(m.settings.RepeatAlertMinutes) * time.Minute
			if now.Sub(lastTime) < repeatDuration {
				continue
			}
		}

		title, message := m.formatNotification(alert)
		if err := m.notify(title, message, m.settings.EnableSoundAlerts); err != nil {
			return fmt.Errorf("sending %s alert: %w", alert.Type, err)
		}
		logger.Info("Alert sent", "type", alert.Type, "value", alert.Value, "in_minutes", alert.InMinutes)
		m.lastAlertTime[alert.Type] = now
	}

	// Alerts that no longer apply may fire again as soon as they recur
	active := make(map[string]bool)
	for _, alert := range m.evaluate(p) {
		active[alert.Type] = true
	}
	for alertType := range m.lastAlertTime {
		if !active[alertType] {
			delete(m.lastAlertTime, alertType)
		}
	}
	return nil
}

// shouldAlert maps a glucose status onto an enabled alert type
func (m *Manager) shouldAlert(status string) string {
	switch status {
	case alertUrgentLow:
		if m.settings.EnableUrgentLowAlert {
			return alertUrgentLow
		}
	case alertLow:
		if m.settings.EnableLowAlert {
			return alertLow
		}
	case alertUrgentHigh:
		if m.settings.EnableUrgentHighAlert {
			return alertUrgentHigh
		}
	case alertHigh:
		if m.settings.EnableHighAlert {
			return alertHigh
		}
	}
	return ""
}

// formatNotification creates the notification title and message
func (m *Manager) formatNotification(alert Alert) (string, string) {
	var title, state string

	valueStr := fmt.Sprintf("%.0f mg/dL", alert.Value)
	if models.IsMmol(m.settings.Unit) {
		valueStr = fmt.Sprintf("%.1f mmol/L", models.ToMmol(alert.Value))
	}

	switch alert.Type {
	case alertUrgentLow:
		title, state = "⚠️ URGENT LOW GLUCOSE", "critically low"
	case alertLow:
		title, state = "⬇️ Low Glucose", "low"
	case alertUrgentHigh:
		title, state = "⚠️ URGENT HIGH GLUCOSE", "critically high"
	case alertHigh:
		title, state = "⬆️ High Glucose", "high"
	}

	if alert.Projected {
		return title, fmt.Sprintf("Glucose projected %s in %.0f min: %s", state, alert.InMinutes, valueStr)
	}
	return title, fmt.Sprintf("Glucose is %s: %s", state, valueStr)
}

// sendNotification sends a system notification, with sound when requested
func sendNotification(title, message string, sound bool) error {
	if sound {
		return beeep.Alert(title, message, "")
	}
	return beeep.Notify(title, message, "")
}

// SendTestNotification sends a test notification
func (m *Manager) SendTestNotification() error {
	return m.notify("Glucoplan", "Test notification - alerts are working!", false)
}
