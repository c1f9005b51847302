// Package nutrition turns food selections into absolute macronutrient totals
package nutrition

import (
	"fmt"
	"math"
	"strings"

	"github.com/mrcode/glucoplan/internal/models"
	"github.com/mrcode/glucoplan/internal/units"
)

// Default serving sizes used when a food carries none
const (
	DefaultServingGrams = 100.0
	defaultServingUnits = 1.0
)

// AbsorptionPolicy decides the absorption type of an aggregated meal
type AbsorptionPolicy string

const (
	// LastWins takes the type of the last selection processed
	LastWins AbsorptionPolicy = "last"
	// Fastest takes the fastest type among the selections
	Fastest AbsorptionPolicy = "fastest"
	// CarbWeighted takes the type nearest the carb-weighted mean speed
	CarbWeighted AbsorptionPolicy = "carb-weighted"
)

// ParsePolicy parses a policy name; the empty string selects LastWins
func ParsePolicy(s string) (AbsorptionPolicy, error) {
	switch AbsorptionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", LastWins:
		return LastWins, nil
	case Fastest:
		return Fastest, nil
	case CarbWeighted:
		return CarbWeighted, nil
	default:
		return "", fmt.Errorf("unknown absorption policy %q", s)
	}
}

// PortionSystem returns the measurement system of a portion. A portion
// without an explicit system takes the system of its unit, falling back to weight.
func PortionSystem(p models.Portion) models.MeasurementSystem {
	if p.System != "" {
		return p.System
	}
	if s := units.SystemOf(p.Unit); s != "" {
		return s
	}
	return models.Weight
}

// ConversionRatio returns portion / serving in canonical units
func ConversionRatio(sel models.FoodSelection) float64 {
	system := PortionSystem(sel.Portion)

	var serving models.Quantity
	if system == models.Weight {
		serving = sel.ServingSize.Weight
		if !serving.Defined() {
			serving = models.Quantity{Amount: DefaultServingGrams, Unit: "g"}
		}
	} else {
		serving = sel.ServingSize.Volume
		if !serving.Defined() {
			// One serving-unit; without a unit of its own that is one of the portion's unit
			unit := serving.Unit
			if unit == "" {
				unit = sel.Portion.Unit
			}
			serving = models.Quantity{Amount: defaultServingUnits, Unit: unit}
		}
	}

	// Same unit on both sides needs no table lookup
	if strings.EqualFold(sel.Portion.Unit, serving.Unit) {
		return sel.Portion.Amount / serving.Amount
	}

	portionAmount := units.ToCanonical(sel.Portion.Amount, sel.Portion.Unit, system)
	servingAmount := units.ToCanonical(serving.Amount, serving.Unit, system)
	if servingAmount <= 0 {
		servingAmount = units.ToCanonical(defaultServingUnits, serving.Unit, system)
	}
	return portionAmount / servingAmount
}

// ComputeNutrients scales the per-serving macros of a selection by its portion
func ComputeNutrients(sel models.FoodSelection) models.NutritionTotal {
	ratio := ConversionRatio(sel)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio < 0 {
		ratio = 0
	}

	carbs := sel.NutrientsPerServing.Carbs * ratio
	protein := sel.NutrientsPerServing.Protein * ratio
	fat := sel.NutrientsPerServing.Fat * ratio

	return models.NutritionTotal{
		Carbs:          carbs,
		Protein:        protein,
		Fat:            fat,
		Calories:       models.Calories(carbs, protein, fat),
		AbsorptionType: sel.AbsorptionType.OrMedium(),
	}
}

// AggregateTotals sums the selections using the LastWins absorption policy
func AggregateTotals(sels []models.FoodSelection) models.NutritionTotal {
	return AggregateWith(LastWins, sels)
}

// AggregateWith sums the selections and resolves the absorption type with the policy.
// An empty meal aggregates to zero macros with medium absorption.
func AggregateWith(policy AbsorptionPolicy, sels []models.FoodSelection) models.NutritionTotal {
	total := models.NutritionTotal{AbsorptionType: models.AbsorptionMedium}
	if len(sels) == 0 {
		return total
	}

	var weightedRank, rankCarbs float64
	fastest := -1

	for _, sel := range sels {
		n := ComputeNutrients(sel)
		total.Carbs += n.Carbs
		total.Protein += n.Protein
		total.Fat += n.Fat

		rank := n.AbsorptionType.Rank()
		switch policy {
		case Fastest:
			if rank > fastest {
				fastest = rank
				total.AbsorptionType = n.AbsorptionType
			}
		case CarbWeighted:
			weightedRank += float64(rank) * n.Carbs
			rankCarbs += n.Carbs
		default:
			total.AbsorptionType = n.AbsorptionType
		}
	}

	if policy == CarbWeighted && rankCarbs > 0 {
		idx := int(math.Round(weightedRank / rankCarbs))
		total.AbsorptionType = models.AbsorptionTypes[idx]
	}

	total.Calories = models.Calories(total.Carbs, total.Protein, total.Fat)
	return total
}

// Round rounds every macro of the total to one decimal for display
func Round(n models.NutritionTotal) models.NutritionTotal {
	n.Carbs = round1(n.Carbs)
	n.Protein = round1(n.Protein)
	n.Fat = round1(n.Fat)
	n.Calories = round1(n.Calories)
	return n
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
