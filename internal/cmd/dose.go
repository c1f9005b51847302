// Package cmd implements the glucoplan command line interface
package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrcode/glucoplan/internal/dosing"
	"github.com/mrcode/glucoplan/internal/logging"
	"github.com/mrcode/glucoplan/internal/models"
	"github.com/mrcode/glucoplan/internal/nutrition"
)

// errNoFood is returned when a dose request names no food and no nutrition totals
var errNoFood = errors.New("no food given: use --food or --input")

var (
	doseFoods           []string
	doseActivities      []string
	doseInput           string
	doseBG              float64
	doseUnit            string
	doseMealType        string
	doseAbsorption      string
	doseAbsorptionRule  string
	doseAt              string
	doseFloorCorrection bool
)

var doseCmd = &cobra.Command{
	Use:   "dose",
	Short: "Calculate a meal insulin dose",
	Long: `Calculate a suggested insulin dose for a meal.

Foods come from the built-in catalog (see "glucoplan foods list") and are given
as name=amount unit, for example --food "rice=1 cup" --food "apple=150 g".
Activities are level@duration with a level from -2 to 2 and a duration in hours
or HH:MM, for example --activity "1@00:45".

A JSON request may be passed with --input (or "-" for stdin); flags add to it.`,
	RunE: runDose,
}

func init() {
	rootCmd.AddCommand(doseCmd)

	doseCmd.Flags().StringArrayVarP(&doseFoods, "food", "f", nil, "Food portion as name=amount unit (repeatable)")
	doseCmd.Flags().StringArrayVarP(&doseActivities, "activity", "a", nil, "Activity as level@duration (repeatable)")
	doseCmd.Flags().StringVarP(&doseInput, "input", "i", "", "JSON dose request file, - for stdin")
	doseCmd.Flags().Float64Var(&doseBG, "bg", 0, "Current blood glucose (0 = unknown)")
	doseCmd.Flags().StringVar(&doseUnit, "unit", "mg/dL", "Unit of --bg (mg/dL or mmol/L)")
	doseCmd.Flags().StringVar(&doseMealType, "meal-type", "", "Meal type (breakfast, lunch, dinner, snack)")
	doseCmd.Flags().StringVar(&doseAbsorption, "absorption", "", "Override the absorption type (very_slow .. very_fast)")
	doseCmd.Flags().StringVar(&doseAbsorptionRule, "absorption-policy", string(nutrition.LastWins), "How mixed meals pick an absorption type (last, fastest, carb-weighted)")
	doseCmd.Flags().StringVar(&doseAt, "at", "", "Time of the meal (default: now)")
	doseCmd.Flags().BoolVar(&doseFloorCorrection, "floor-correction", false, "Ignore negative corrections below target")
}

// doseRequest is the JSON form of a dose calculation
type doseRequest struct {
	Foods               []models.FoodSelection `json:"foods"`
	CatalogFoods        []catalogPortion       `json:"catalogFoods"`
	Nutrition           *models.NutritionTotal `json:"nutrition"`
	CurrentBloodGlucose *float64               `json:"currentBloodGlucose"`
	Activities          []models.Activity      `json:"activities"`
	MealType            models.MealType        `json:"mealType"`
	AbsorptionOverride  models.AbsorptionType  `json:"absorptionTypeOverride"`
	At                  models.Timestamp       `json:"timestamp"`
}

type catalogPortion struct {
	Name    string         `json:"name"`
	Portion models.Portion `json:"portion"`
}

// doseOutput is what the dose command prints
type doseOutput struct {
	Foods              []string              `json:"foods,omitempty"`
	Nutrition          models.NutritionTotal `json:"nutrition"`
	BloodGlucoseStatus string                `json:"bloodGlucoseStatus,omitempty"` // low, normal or high against the target
	Dose               *dosing.Result        `json:"dose"`
}

func runDose(cmd *cobra.Command, args []string) error {
	logger := logging.Logger(logging.SourceCLI)

	var req doseRequest
	if doseInput != "" {
		if err := readJSONFile(doseInput, &req); err != nil {
			return err
		}
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	for _, cp := range req.CatalogFoods {
		sel, err := catalog.Resolve(cp.Name, cp.Portion)
		if err != nil {
			return err
		}
		req.Foods = append(req.Foods, sel)
	}
	for _, arg := range doseFoods {
		name, portion, err := parseFoodArg(arg)
		if err != nil {
			return err
		}
		sel, err := catalog.Resolve(name, portion)
		if err != nil {
			return err
		}
		req.Foods = append(req.Foods, sel)
	}
	for _, arg := range doseActivities {
		act, err := parseActivityArg(arg)
		if err != nil {
			return err
		}
		req.Activities = append(req.Activities, act)
	}

	policy, err := nutrition.ParsePolicy(doseAbsorptionRule)
	if err != nil {
		return err
	}

	var total models.NutritionTotal
	switch {
	case len(req.Foods) > 0:
		total = nutrition.AggregateWith(policy, req.Foods)
		if req.Nutrition != nil {
			logger.Warn("Both foods and nutrition totals given, using foods")
		}
	case req.Nutrition != nil:
		total = *req.Nutrition
		total.AbsorptionType = total.AbsorptionType.OrMedium()
	default:
		return errNoFood
	}

	if cmd.Flags().Changed("bg") {
		bg := doseBG
		if models.IsMmol(doseUnit) {
			bg = models.ToMgdl(bg)
		}
		req.CurrentBloodGlucose = &bg
	}
	if doseMealType != "" {
		req.MealType = models.MealType(strings.ToLower(doseMealType))
	}
	if doseAbsorption != "" {
		override := models.AbsorptionType(strings.ToLower(doseAbsorption))
		if !override.Valid() {
			return fmt.Errorf("unknown absorption type %q", doseAbsorption)
		}
		req.AbsorptionOverride = override
	}

	now := req.At.OrNow(time.Now())
	if doseAt != "" {
		at := models.ParseTime(doseAt)
		if at.IsZero() {
			return fmt.Errorf("cannot parse time %q", doseAt)
		}
		now = at
	}

	store, err := loadProfileStore()
	if err != nil {
		return err
	}

	result, err := dosing.CalculateDose(dosing.Input{
		Nutrition:           total,
		CurrentBloodGlucose: req.CurrentBloodGlucose,
		Activities:          req.Activities,
		Profile:             store.Current(),
		MealType:            req.MealType,
		AbsorptionOverride:  req.AbsorptionOverride,
		Now:                 now,
		FloorCorrection:     doseFloorCorrection,
	})
	if err != nil {
		return err
	}

	logger.Debug("Dose calculated", "total", result.Total, "carbs", total.Carbs, "absorption", result.AbsorptionType)

	out := doseOutput{Nutrition: nutrition.Round(total), Dose: result}
	if req.CurrentBloodGlucose != nil {
		out.BloodGlucoseStatus = models.GlucoseStatusFor(*req.CurrentBloodGlucose, store.Current().TargetGlucose)
	}
	for _, sel := range req.Foods {
		out.Foods = append(out.Foods, sel.Name)
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

// parseFoodArg splits "name=amount unit". The unit defaults to grams.
func parseFoodArg(arg string) (string, models.Portion, error) {
	name, rest, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", models.Portion{}, fmt.Errorf("invalid food %q: want name=amount unit", arg)
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 || len(fields) > 2 {
		return "", models.Portion{}, fmt.Errorf("invalid food %q: want name=amount unit", arg)
	}

	amount, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || amount < 0 {
		return "", models.Portion{}, fmt.Errorf("invalid amount in %q", arg)
	}

	unit := "g"
	if len(fields) == 2 {
		unit = fields[1]
	}
	return name, models.Portion{Amount: amount, Unit: unit}, nil
}

// parseActivityArg parses "level@duration"
func parseActivityArg(arg string) (models.Activity, error) {
	levelStr, durationStr, ok := strings.Cut(arg, "@")
	if !ok {
		return models.Activity{}, fmt.Errorf("invalid activity %q: want level@duration", arg)
	}

	level, err := strconv.Atoi(strings.TrimSpace(levelStr))
	if err != nil || !models.ActivityLevel(level).Valid() {
		return models.Activity{}, fmt.Errorf("invalid activity level in %q: want -2..2", arg)
	}

	hours, err := models.ParseDuration(durationStr)
	if err != nil {
		return models.Activity{}, fmt.Errorf("invalid activity duration in %q: %w", arg, err)
	}

	return models.Activity{Level: models.ActivityLevel(level), DurationHours: models.Hours(hours)}, nil
}
