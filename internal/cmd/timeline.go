// Package cmd implements the glucoplan command line interface
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrcode/glucoplan/internal/models"
	"github.com/mrcode/glucoplan/internal/nightscout"
	"github.com/mrcode/glucoplan/internal/prediction"
)

var (
	timelineInput       string
	timelineNightscout  bool
	timelineNow         string
	timelineFutureHours float64
	timelineMealHours   float64
	timelineMaxPoints   int
	timelineVariant     string
	timelineAddCarbs    float64
	timelineAddInsulin  float64
	timelineSummary     bool
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Project meals and insulin into a glucose timeline",
	Long: `Composite logged meals, insulin doses and glucose readings into a timeline of
baseline, meal impact, insulin impact and projected glucose.

History comes from a JSON file (--input, with "readings", "doses" and "meals")
or from the Nightscout server in the settings (--nightscout). With --nightscout,
--add-carbs and --add-insulin project a what-if scenario at now.`,
	RunE: runTimeline,
}

func init() {
	rootCmd.AddCommand(timelineCmd)

	timelineCmd.Flags().StringVarP(&timelineInput, "input", "i", "", "JSON history file, - for stdin")
	timelineCmd.Flags().BoolVar(&timelineNightscout, "nightscout", false, "Fetch history from Nightscout")
	timelineCmd.Flags().StringVar(&timelineNow, "now", "", "Reference time (default: latest input for files, current time for Nightscout)")
	timelineCmd.Flags().Float64Var(&timelineFutureHours, "future-hours", 0, "Hours projected past now (default: settings projectionHours with --nightscout)")
	timelineCmd.Flags().Float64Var(&timelineMealHours, "meal-hours", prediction.DefaultMealDurationHours, "Hours each meal contributes")
	timelineCmd.Flags().IntVar(&timelineMaxPoints, "max-points", prediction.DefaultMaxPoints, "Maximum timeline points")
	timelineCmd.Flags().StringVar(&timelineVariant, "variant", "onset", "Insulin rise shape (onset, linear)")
	timelineCmd.Flags().Float64Var(&timelineAddCarbs, "add-carbs", 0, "Hypothetical carbs eaten now (with --nightscout)")
	timelineCmd.Flags().Float64Var(&timelineAddInsulin, "add-insulin", 0, "Hypothetical insulin taken now (with --nightscout)")
	timelineCmd.Flags().BoolVar(&timelineSummary, "summary", false, "Print the projection summary instead of every point")
}

func parseVariant(s string) (prediction.CurveVariant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "onset":
		return prediction.RiseOnsetScaled, nil
	case "linear":
		return prediction.RiseLinear, nil
	default:
		return 0, fmt.Errorf("unknown curve variant %q", s)
	}
}

func runTimeline(cmd *cobra.Command, args []string) error {
	if (timelineInput == "") == !timelineNightscout {
		return errors.New("use exactly one of --input or --nightscout")
	}

	variant, err := parseVariant(timelineVariant)
	if err != nil {
		return err
	}

	var now time.Time
	if timelineNow != "" {
		if now = models.ParseTime(timelineNow); now.IsZero() {
			return fmt.Errorf("cannot parse time %q", timelineNow)
		}
	}

	store, err := loadProfileStore()
	if err != nil {
		return err
	}

	if timelineNightscout {
		return runTimelineNightscout(cmd, store, now, variant)
	}

	var history models.History
	if err := readJSONFile(timelineInput, &history); err != nil {
		return err
	}

	points := prediction.Composite(history.Meals, history.Doses, history.Readings, store.Current(), prediction.Options{
		Now:               now,
		FutureHours:       timelineFutureHours,
		MealDurationHours: timelineMealHours,
		MaxPoints:         timelineMaxPoints,
		Variant:           variant,
	})

	if timelineSummary {
		ref := now
		if ref.IsZero() && len(points) > 0 {
			ref = time.UnixMilli(points[len(points)-1].Timestamp)
		}
		return writeJSON(cmd.OutOrStdout(), prediction.Summarize(points, ref, 0, 0))
	}
	return writeJSON(cmd.OutOrStdout(), points)
}

func runTimelineNightscout(cmd *cobra.Command, store prediction.ProfileSource, now time.Time, variant prediction.CurveVariant) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if !settings.IsConfigured() {
		return errors.New("nightscout URL is not configured in settings")
	}
	if now.IsZero() {
		now = time.Now()
	}

	cfg := serviceConfig(settings)
	cfg.Variant = variant
	if timelineFutureHours > 0 {
		cfg.FutureHours = timelineFutureHours
	}

	client := nightscout.NewClientFromSettings(settings)
	svc := prediction.NewService(nightscout.NewImporter(client, store), store, cfg)

	var (
		meals []models.MealEntry
		doses []models.InsulinDose
	)
	if timelineAddCarbs > 0 {
		meals = append(meals, models.MealEntry{
			ID:        models.NewID(),
			At:        models.At(now),
			Nutrition: models.NutritionTotal{Carbs: timelineAddCarbs, AbsorptionType: models.AbsorptionMedium},
		})
	}
	if timelineAddInsulin > 0 {
		doses = append(doses, models.InsulinDose{
			ID:             models.NewID(),
			Units:          timelineAddInsulin,
			AdministeredAt: models.At(now),
		})
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	proj, err := svc.ProjectWithScenario(ctx, now, meals, doses)
	if err != nil {
		return err
	}
	if timelineSummary {
		proj.Points = nil
	}
	return writeJSON(cmd.OutOrStdout(), proj)
}

// serviceConfig maps monitor settings onto the projection service
func serviceConfig(settings *models.Settings) prediction.Config {
	s := settings.Clone()
	cfg := prediction.DefaultConfig()
	if s.HistoryHours > 0 {
		cfg.HistoryHours = float64(s.HistoryHours)
	}
	if s.ProjectionHours > 0 {
		cfg.FutureHours = float64(s.ProjectionHours)
	}
	cfg.LowThreshold = float64(s.TargetLow)
	cfg.HighThreshold = float64(s.TargetHigh)
	if s.RefreshInterval > 0 {
		// History is refetched on every refresh
		cfg.CacheDuration = time.Duration(s.RefreshInterval) * time.Second / 2
	}
	return cfg
}
