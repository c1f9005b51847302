// Package cmd implements the glucoplan command line interface
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrcode/glucoplan/internal/models"
	"github.com/mrcode/glucoplan/internal/prediction"
)

var (
	curveHours   float64
	curveStep    time.Duration
	curveStart   string
	curveVariant string

	curveCarbs      float64
	curveProtein    float64
	curveFat        float64
	curveAbsorption string

	curveUnits    float64
	curvePreset   string
	curveOnset    float64
	curvePeak     float64
	curveDuration float64
)

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Sample a single meal effect or insulin activity curve",
}

var curveMealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Sample the glucose effect of one meal",
	RunE:  runCurveMeal,
}

var curveInsulinCmd = &cobra.Command{
	Use:   "insulin",
	Short: "Sample the activity of one insulin dose",
	Long: `Sample the activity of one insulin dose. The profile comes from --preset
(rapid_acting, short_acting, intermediate_acting, long_acting) or from
--onset, --peak and --duration; a negative --peak means peakless.`,
	RunE: runCurveInsulin,
}

func init() {
	rootCmd.AddCommand(curveCmd)
	curveCmd.AddCommand(curveMealCmd, curveInsulinCmd)

	curveCmd.PersistentFlags().Float64Var(&curveHours, "hours", 0, "Hours to sample (default: 6 for meals, the insulin duration for doses)")
	curveCmd.PersistentFlags().DurationVar(&curveStep, "step", prediction.DefaultStep, "Sampling step")
	curveCmd.PersistentFlags().StringVar(&curveStart, "start", "", "Time of the meal or dose (default: now)")

	curveMealCmd.Flags().Float64Var(&curveCarbs, "carbs", 0, "Carbohydrates in grams")
	curveMealCmd.Flags().Float64Var(&curveProtein, "protein", 0, "Protein in grams")
	curveMealCmd.Flags().Float64Var(&curveFat, "fat", 0, "Fat in grams")
	curveMealCmd.Flags().StringVar(&curveAbsorption, "absorption", string(models.AbsorptionMedium), "Absorption type")

	curveInsulinCmd.Flags().Float64Var(&curveUnits, "units", 1, "Dose in units")
	curveInsulinCmd.Flags().StringVar(&curvePreset, "preset", "rapid_acting", "Insulin preset")
	curveInsulinCmd.Flags().Float64Var(&curveOnset, "onset", 0, "Onset in hours (overrides the preset)")
	curveInsulinCmd.Flags().Float64Var(&curvePeak, "peak", 0, "Peak in hours, negative for peakless")
	curveInsulinCmd.Flags().Float64Var(&curveDuration, "duration", 0, "Duration in hours (overrides the preset)")
	curveInsulinCmd.Flags().StringVar(&curveVariant, "variant", "onset", "Rise shape (onset, linear)")
}

func curveStartTime() (time.Time, error) {
	if curveStart == "" {
		return time.Now(), nil
	}
	t := models.ParseTime(curveStart)
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("cannot parse time %q", curveStart)
	}
	return t, nil
}

func runCurveMeal(cmd *cobra.Command, args []string) error {
	start, err := curveStartTime()
	if err != nil {
		return err
	}

	absorption := models.AbsorptionType(strings.ToLower(curveAbsorption))
	if !absorption.Valid() {
		return fmt.Errorf("unknown absorption type %q", curveAbsorption)
	}

	store, err := loadProfileStore()
	if err != nil {
		return err
	}

	hours := curveHours
	if hours <= 0 {
		hours = prediction.DefaultMealDurationHours
	}

	meal := models.MealEntry{
		At: models.At(start),
		Nutrition: models.NutritionTotal{
			Carbs:          curveCarbs,
			Protein:        curveProtein,
			Fat:            curveFat,
			Calories:       models.Calories(curveCarbs, curveProtein, curveFat),
			AbsorptionType: absorption,
		},
	}
	return writeJSON(cmd.OutOrStdout(), prediction.ProjectEffect(meal, store.Current(), hours, curveStep))
}

func runCurveInsulin(cmd *cobra.Command, args []string) error {
	start, err := curveStartTime()
	if err != nil {
		return err
	}

	variant, err := parseVariant(curveVariant)
	if err != nil {
		return err
	}

	pk, err := curvePharmacokinetics(cmd)
	if err != nil {
		return err
	}

	dose := models.InsulinDose{
		Medication:       curvePreset,
		Units:            curveUnits,
		AdministeredAt:   models.At(start),
		Pharmacokinetics: pk,
	}
	return writeJSON(cmd.OutOrStdout(), prediction.ProjectActivityVariant(dose, curveHours, curveStep, variant))
}

// curvePharmacokinetics starts from the preset and applies explicit overrides
func curvePharmacokinetics(cmd *cobra.Command) (models.Pharmacokinetics, error) {
	pk, ok := models.InsulinPresets[curvePreset]
	if !ok {
		return pk, fmt.Errorf("unknown insulin preset %q", curvePreset)
	}

	if cmd.Flags().Changed("onset") {
		pk.OnsetHours = curveOnset
	}
	if cmd.Flags().Changed("duration") {
		pk.DurationHours = curveDuration
	}
	if cmd.Flags().Changed("peak") {
		if curvePeak < 0 {
			pk.PeakHours = nil
		} else {
			pk.PeakHours = models.Float(curvePeak)
		}
	}

	if err := pk.Validate(); err != nil {
		return pk, fmt.Errorf("invalid insulin profile: %w", err)
	}
	return pk, nil
}
