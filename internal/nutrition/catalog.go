package nutrition

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrcode/glucoplan/internal/models"
)

// ErrUnknownFood is returned when a food name is not in the catalog
var ErrUnknownFood = errors.New("unknown food")

// Food is a catalog entry with per-serving nutrients
type Food struct {
	Name           string                `json:"name" yaml:"name"`
	Category       string                `json:"category" yaml:"category"`
	Description    string                `json:"description,omitempty" yaml:"description,omitempty"`
	ServingSize    models.ServingSize    `json:"servingSize" yaml:"serving_size"`
	Nutrients      models.Macros         `json:"nutrients" yaml:"nutrients"`
	Fiber          float64               `json:"fiber,omitempty" yaml:"fiber,omitempty"`
	AbsorptionType models.AbsorptionType `json:"absorptionType" yaml:"absorption_type"`
	GlycemicIndex  int                   `json:"glycemicIndex,omitempty" yaml:"gi_index,omitempty"`
}

// Catalog is a searchable set of foods keyed by name
type Catalog struct {
	foods map[string]Food
}

// NewCatalog builds a catalog from the given foods
func NewCatalog(foods ...Food) *Catalog {
	c := &Catalog{foods: make(map[string]Food, len(foods))}
	for _, f := range foods {
		c.Add(f)
	}
	return c
}

// DefaultCatalog returns the built-in food catalog
func DefaultCatalog() *Catalog {
	return NewCatalog(builtinFoods...)
}

// Add inserts or replaces a food. Foods without a category are filed as custom.
func (c *Catalog) Add(f Food) {
	f.Name = strings.ToLower(strings.TrimSpace(f.Name))
	if f.Category == "" {
		f.Category = "custom"
	}
	f.AbsorptionType = f.AbsorptionType.OrMedium()
	c.foods[f.Name] = f
}

// Len returns the number of foods
func (c *Catalog) Len() int {
	return len(c.foods)
}

// Lookup returns the food with the given name
func (c *Catalog) Lookup(name string) (Food, bool) {
	f, ok := c.foods[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// Search returns foods whose name contains the query, optionally restricted to
// a category, ordered by name
func (c *Catalog) Search(query, category string) []Food {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []Food
	for name, f := range c.foods {
		if category != "" && f.Category != category {
			continue
		}
		if strings.Contains(name, query) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Categories returns the distinct categories in the catalog
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range c.foods {
		if !seen[f.Category] {
			seen[f.Category] = true
			out = append(out, f.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Resolve builds a selection for the named food and portion
func (c *Catalog) Resolve(name string, portion models.Portion) (models.FoodSelection, error) {
	f, ok := c.Lookup(name)
	if !ok {
		return models.FoodSelection{}, fmt.Errorf("%w: %s", ErrUnknownFood, name)
	}
	return models.FoodSelection{
		Name:                f.Name,
		Portion:             portion,
		NutrientsPerServing: f.Nutrients,
		ServingSize:         f.ServingSize,
		AbsorptionType:      f.AbsorptionType,
	}, nil
}

type catalogFile struct {
	Foods []Food `yaml:"foods"`
}

// LoadFile adds the foods of a YAML catalog file, replacing entries with the same name
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // Catalog path is chosen by the user
	if err != nil {
		return fmt.Errorf("failed to read food catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse food catalog %s: %w", path, err)
	}

	for i, f := range file.Foods {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("food catalog %s: entry %d has no name", path, i)
		}
		c.Add(f)
	}
	return nil
}

func serving(volume float64, volumeUnit string, grams float64) models.ServingSize {
	return models.ServingSize{
		Volume: models.Quantity{Amount: volume, Unit: volumeUnit},
		Weight: models.Quantity{Amount: grams, Unit: "g"},
	}
}

var builtinFoods = []Food{
	{Name: "rice", Category: "basic", Description: "Cooked white rice", ServingSize: serving(1, "bowl", 200),
		Nutrients: models.Macros{Carbs: 44, Protein: 5, Fat: 0.4}, Fiber: 0.6, AbsorptionType: models.AbsorptionFast, GlycemicIndex: 73},
	{Name: "white_bread", Category: "starch", Description: "White bread slices", ServingSize: serving(1, "v_plate", 50),
		Nutrients: models.Macros{Carbs: 26, Protein: 4, Fat: 2}, Fiber: 1.2, AbsorptionType: models.AbsorptionFast, GlycemicIndex: 75},
	{Name: "potato", Category: "starchy_vegetables", Description: "Medium white potato", ServingSize: serving(1, "cup", 85),
		Nutrients: models.Macros{Carbs: 17, Protein: 2, Fat: 0.1}, Fiber: 2.2, AbsorptionType: models.AbsorptionMedium, GlycemicIndex: 85},
	{Name: "dal", Category: "pulses", Description: "Cooked yellow split lentils", ServingSize: serving(1, "bowl", 240),
		Nutrients: models.Macros{Carbs: 45, Protein: 27, Fat: 2.4}, Fiber: 15, AbsorptionType: models.AbsorptionSlow, GlycemicIndex: 25},
	{Name: "apple", Category: "fruits", Description: "Medium apple with skin", ServingSize: serving(1, "cup", 150),
		Nutrients: models.Macros{Carbs: 21, Protein: 0.5, Fat: 0.3}, Fiber: 3.6, AbsorptionType: models.AbsorptionMedium, GlycemicIndex: 36},
	{Name: "paneer", Category: "dairy", Description: "Indian cottage cheese", ServingSize: serving(1, "cup", 85),
		Nutrients: models.Macros{Carbs: 3, Protein: 14, Fat: 22}, AbsorptionType: models.AbsorptionSlow},
	{Name: "sugar", Category: "sweets", Description: "White granulated sugar", ServingSize: serving(2, "tablespoon", 30),
		Nutrients: models.Macros{Carbs: 25.2}, AbsorptionType: models.AbsorptionVeryFast, GlycemicIndex: 65},
	{Name: "veg_pizza", Category: "snacks", Description: "6-inch vegetarian pizza", ServingSize: serving(1, "v_plate", 150),
		Nutrients: models.Macros{Carbs: 70, Protein: 16, Fat: 20}, Fiber: 4, AbsorptionType: models.AbsorptionMedium, GlycemicIndex: 60},
	{Name: "pani_puri", Category: "common_snacks", Description: "Indian street food snack with potato filling", ServingSize: serving(1, "v_plate", 120),
		Nutrients: models.Macros{Carbs: 24, Protein: 3, Fat: 8}, Fiber: 1.5, AbsorptionType: models.AbsorptionFast, GlycemicIndex: 70},
	{Name: "non_veg_burger", Category: "high_protein", Description: "Beef burger with bun and vegetables", ServingSize: serving(1, "v_plate", 300),
		Nutrients: models.Macros{Carbs: 31, Protein: 29, Fat: 17}, Fiber: 1.4, AbsorptionType: models.AbsorptionMedium, GlycemicIndex: 55},
	{Name: "french_fries", Category: "high_fat", Description: "Medium portion", ServingSize: serving(1, "v_plate", 300),
		Nutrients: models.Macros{Carbs: 41, Protein: 3.4, Fat: 15}, Fiber: 3.8, AbsorptionType: models.AbsorptionFast, GlycemicIndex: 75},
	{Name: "chole_bhature", Category: "indian", Description: "Spicy chickpea curry with fried bread", ServingSize: serving(1, "v_plate", 300),
		Nutrients: models.Macros{Carbs: 65, Protein: 15, Fat: 22}, Fiber: 12, AbsorptionType: models.AbsorptionMedium, GlycemicIndex: 45},
	{Name: "fried_rice", Category: "chinese", Description: "Stir-fried rice with vegetables", ServingSize: serving(1, "bowl", 250),
		Nutrients: models.Macros{Carbs: 45, Protein: 6, Fat: 12}, Fiber: 2.5, AbsorptionType: models.AbsorptionMedium, GlycemicIndex: 65},
	{Name: "lasagna", Category: "italian", Description: "Layered pasta with meat sauce and cheese", ServingSize: serving(1, "v_plate", 250),
		Nutrients: models.Macros{Carbs: 35, Protein: 18, Fat: 14}, Fiber: 2.8, AbsorptionType: models.AbsorptionMedium, GlycemicIndex: 55},
}
