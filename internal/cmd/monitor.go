// Package cmd implements the glucoplan command line interface
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrcode/glucoplan/internal/app"
	"github.com/mrcode/glucoplan/internal/logging"
	"github.com/mrcode/glucoplan/internal/models"
	"github.com/mrcode/glucoplan/internal/nightscout"
	"github.com/mrcode/glucoplan/internal/notifications"
	"github.com/mrcode/glucoplan/internal/prediction"
)

var (
	monitorNoAlerts bool
	monitorTest     bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch Nightscout and alert on projected lows and highs",
	Long: `Periodically fetch readings and treatments from Nightscout, project the
glucose timeline and raise desktop notifications when the current or projected
value crosses the thresholds in the settings. The profile file is reloaded when
it changes.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().BoolVar(&monitorNoAlerts, "no-alerts", false, "Log projections without desktop notifications")
	monitorCmd.Flags().BoolVar(&monitorTest, "test-notification", false, "Send a test notification and exit")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	logger := logging.Logger(logging.SourceMonitor)

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if monitorTest {
		return notifications.NewManager(settings).SendTestNotification()
	}
	if !settings.IsConfigured() {
		return errors.New("nightscout URL is not configured in settings")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := loadProfileStore()
	if err != nil {
		return err
	}
	if err := store.Watch(ctx); err != nil {
		logger.Warn("Profile hot reload disabled", "error", err)
	}

	client := nightscout.NewClientFromSettings(settings)
	if err := client.TestConnection(ctx); err != nil {
		return fmt.Errorf("cannot reach nightscout: %w", err)
	}

	svc := prediction.NewService(nightscout.NewImporter(client, store), store, serviceConfig(settings))
	store.OnReload(func(*models.PatientProfile) { svc.RefreshCache() })

	var monitor *app.Monitor
	if monitorNoAlerts {
		monitor = app.NewMonitor(settings, svc, nil)
	} else {
		monitor = app.NewMonitorWithNotifications(settings, svc)
	}

	monitor.SetEntrySource(client)

	out := cmd.OutOrStdout()
	monitor.OnUpdate(func(s *app.Status) {
		printStatus(out, settings, s)
	})

	return monitor.Run(ctx)
}

func printStatus(w io.Writer, settings *models.Settings, s *app.Status) {
	unit := settings.Clone().Unit
	sensor := ""
	if e := s.Entry; e != nil {
		value := float64(e.SGV)
		if models.IsMmol(unit) {
			value = e.ValueMmolL()
		}
		sensor = fmt.Sprintf("cgm %g %s | ", value, e.TrendArrow())
	}

	if s.Projection == nil {
		fmt.Fprintf(w, "%sno projection (%s)\n", sensor, s.LastError)
		return
	}

	p := s.Projection
	current := "-"
	if p.CurrentBG != nil {
		current = fmt.Sprintf("%g", settings.FormatGlucose(*p.CurrentBG))
	}
	line := sensor + fmt.Sprintf("bg %s %s | range %g-%g | iob %.2f U | carbs %.1f g",
		current, unit,
		settings.FormatGlucose(p.MinProjected), settings.FormatGlucose(p.MaxProjected),
		p.ActiveInsulin, p.MealEffect)
	if p.LowInMinutes >= 0 {
		line += " | low in " + models.FormatDuration(p.LowInMinutes/60)
	}
	if p.HighInMinutes >= 0 {
		line += " | high in " + models.FormatDuration(p.HighInMinutes/60)
	}
	if s.IsStale {
		line += fmt.Sprintf(" | stale %d min", s.StaleMinutes)
	}
	fmt.Fprintln(w, line)
}
