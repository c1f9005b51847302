// Package app provides the main application logic
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mrcode/glucoplan/internal/logging"
	"github.com/mrcode/glucoplan/internal/models"
	"github.com/mrcode/glucoplan/internal/notifications"
	"github.com/mrcode/glucoplan/internal/prediction"
)

// staleAfter marks a status stale when no projection succeeded for this long
const staleAfter = 7 * time.Minute

// Status is the latest monitor state
type Status struct {
	Projection        *prediction.Projection `json:"projection,omitempty"`
	Entry             *models.GlucoseEntry   `json:"entry,omitempty"`
	LastSuccess       time.Time              `json:"lastSuccess"`
	StaleMinutes      int                    `json:"staleMinutes"`
	IsStale           bool                   `json:"isStale"`
	ConsecutiveErrors int                    `json:"consecutiveErrors"`
	LastError         string                 `json:"lastError,omitempty"`
}

// Alerter receives each fresh projection
type Alerter interface {
	CheckAndNotify(p *prediction.Projection) error
}

// EntrySource reports the latest sensor reading
type EntrySource interface {
	GetCurrentEntry(ctx context.Context) (*models.GlucoseEntry, error)
}

// Monitor periodically projects the timeline and raises alerts
type Monitor struct {
	settings *models.Settings
	service  *prediction.Service
	alerter  Alerter
	entries  EntrySource

	mu                sync.RWMutex
	lastStatus        *Status
	lastSuccessTime   time.Time
	consecutiveErrors int
	onUpdate          func(*Status)

	now func() time.Time
}

// NewMonitor creates a monitor. alerter may be nil to disable alerts.
func NewMonitor(settings *models.Settings, service *prediction.Service, alerter Alerter) *Monitor {
	return &Monitor{
		settings: settings,
		service:  service,
		alerter:  alerter,
		now:      time.Now,
	}
}

// NewMonitorWithNotifications creates a monitor that alerts through desktop notifications
func NewMonitorWithNotifications(settings *models.Settings, service *prediction.Service) *Monitor {
	return NewMonitor(settings, service, notifications.NewManager(settings))
}

// SetEntrySource attaches the sensor feed shown next to each projection
func (m *Monitor) SetEntrySource(src EntrySource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = src
}

// OnUpdate registers a callback invoked after every tick
func (m *Monitor) OnUpdate(fn func(*Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// Run ticks at the configured refresh interval until ctx is done
func (m *Monitor) Run(ctx context.Context) error {
	interval := time.Duration(m.settings.Clone().RefreshInterval) * time.Second
	if interval <= 0 {
		return errors.New("refresh interval must be positive")
	}

	logger := logging.Logger(logging.SourceMonitor)
	logger.Info("Monitor started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial fetch
	m.Tick(ctx)

	for {
		select {
		case <-ticker.C:
			m.Tick(ctx)
		case <-ctx.Done():
			logger.Info("Monitor stopped")
			return nil
		}
	}
}

// Tick runs a single projection and alert cycle
func (m *Monitor) Tick(ctx context.Context) *Status {
	logger := logging.Logger(logging.SourceMonitor)
	now := m.now()

	m.mu.RLock()
	entries := m.entries
	m.mu.RUnlock()

	var entry *models.GlucoseEntry
	if entries != nil {
		var err error
		if entry, err = entries.GetCurrentEntry(ctx); err != nil {
			logger.Debug("Current entry unavailable", "error", err)
		}
	}

	proj, err := m.service.Project(ctx, now)
	if err == nil && proj == nil {
		err = errors.New("no projection available")
	}

	m.mu.Lock()
	if err != nil {
		m.consecutiveErrors++
		status := &Status{
			Entry:             entry,
			ConsecutiveErrors: m.consecutiveErrors,
			LastSuccess:       m.lastSuccessTime,
			LastError:         err.Error(),
		}
		// Keep serving the previous projection, flagged as stale
		if m.lastStatus != nil {
			status.Projection = m.lastStatus.Projection
		}
		if !m.lastSuccessTime.IsZero() {
			status.StaleMinutes = int(now.Sub(m.lastSuccessTime).Minutes())
			status.IsStale = now.Sub(m.lastSuccessTime) > staleAfter
		}
		m.lastStatus = status
		fn := m.onUpdate
		m.mu.Unlock()

		logger.Warn("Projection failed", "attempt", status.ConsecutiveErrors, "error", err)
		if fn != nil {
			fn(status)
		}
		return status
	}

	m.consecutiveErrors = 0
	m.lastSuccessTime = now
	status := &Status{Projection: proj, Entry: entry, LastSuccess: now}
	m.lastStatus = status
	fn := m.onUpdate
	m.mu.Unlock()

	attrs := []any{"points", len(proj.Points), "min", proj.MinProjected, "max", proj.MaxProjected}
	if proj.CurrentBG != nil {
		attrs = append(attrs, "current", *proj.CurrentBG)
	}
	logger.Debug("Projection updated", attrs...)

	if m.alerter != nil {
		if err := m.alerter.CheckAndNotify(proj); err != nil {
			logger.Error("Notification error", "error", err)
		}
	}
	if fn != nil {
		fn(status)
	}
	return status
}

// CurrentStatus returns the latest status, or nil before the first tick
func (m *Monitor) CurrentStatus() *Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastStatus
}
