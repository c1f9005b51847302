// Package cmd implements the glucoplan command line interface
package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mrcode/glucoplan/internal/models"
	"github.com/mrcode/glucoplan/internal/nutrition"
	"github.com/mrcode/glucoplan/internal/units"
)

var (
	foodsCategory string
	foodsJSON     bool
	unitsSystem   string
)

var foodsCmd = &cobra.Command{
	Use:   "foods",
	Short: "Browse the food catalog and portion units",
}

var foodsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog foods",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFoodsSearch(cmd, "")
	},
}

var foodsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search catalog foods by name or description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFoodsSearch(cmd, args[0])
	},
}

var foodsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List catalog categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		for _, c := range catalog.Categories() {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

var foodsUnitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List portion units",
	Args:  cobra.NoArgs,
	RunE:  runFoodsUnits,
}

var foodsConvertCmd = &cobra.Command{
	Use:   "convert <amount> <from> <to>",
	Short: "Convert an amount between portion units of one system",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[0])
		}
		from, to := args[1], args[2]
		if units.SystemOf(from) != units.SystemOf(to) {
			return fmt.Errorf("cannot convert %s to %s: different measurement systems", from, to)
		}
		got, ok := units.Convert(amount, from, to)
		if !ok {
			return fmt.Errorf("unknown unit in %s -> %s", from, to)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%g %s = %.4g %s\n", amount, from, got, to)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(foodsCmd)
	foodsCmd.AddCommand(foodsListCmd, foodsSearchCmd, foodsCategoriesCmd, foodsUnitsCmd, foodsConvertCmd)

	foodsCmd.PersistentFlags().StringVar(&foodsCategory, "category", "", "Only foods in this category")
	foodsCmd.PersistentFlags().BoolVar(&foodsJSON, "json", false, "Print JSON")
	foodsUnitsCmd.Flags().StringVar(&unitsSystem, "system", "", "Only units of this system (weight, volume)")
}

func runFoodsSearch(cmd *cobra.Command, query string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	foods := catalog.Search(query, foodsCategory)
	if foodsJSON {
		return writeJSON(cmd.OutOrStdout(), foods)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tSERVING\tCARBS\tPROTEIN\tFAT\tABSORPTION\tGI")
	for _, f := range foods {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.1f\t%.1f\t%s\t%d\n",
			f.Name, f.Category, servingLabel(f.ServingSize),
			f.Nutrients.Carbs, f.Nutrients.Protein, f.Nutrients.Fat,
			f.AbsorptionType, f.GlycemicIndex)
	}
	return w.Flush()
}

func servingLabel(s models.ServingSize) string {
	var parts []string
	if s.Volume.Defined() {
		parts = append(parts, fmt.Sprintf("%g %s", s.Volume.Amount, s.Volume.Unit))
	}
	if s.Weight.Defined() {
		parts = append(parts, fmt.Sprintf("%g %s", s.Weight.Amount, s.Weight.Unit))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%g g", nutrition.DefaultServingGrams)
	}
	return strings.Join(parts, " / ")
}

func runFoodsUnits(cmd *cobra.Command, args []string) error {
	var list []units.Unit
	if unitsSystem == "" {
		list = append(units.List(models.Weight), units.List(models.Volume)...)
	} else {
		system := models.ParseMeasurementSystem(unitsSystem)
		if system == "" {
			return fmt.Errorf("unknown measurement system %q", unitsSystem)
		}
		list = units.List(system)
	}

	if foodsJSON {
		return writeJSON(cmd.OutOrStdout(), list)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UNIT\tNAME\tSYSTEM\tBASE")
	for _, u := range list {
		base := "ml"
		if u.System == models.Weight {
			base = "g"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%g %s\n", u.Name, u.DisplayName, u.System, u.Base, base)
	}
	return w.Flush()
}
