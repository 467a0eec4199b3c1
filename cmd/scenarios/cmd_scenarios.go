package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emunsing/webscenarios/internal/report"
	"github.com/emunsing/webscenarios/internal/settings"
)

var clearFields []string

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new scenario with the configured default settings",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all scenarios and their last outputs",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var setCmd = &cobra.Command{
	Use:   "set <id> <group> [field=value ...]",
	Short: "Update one settings group of a scenario",
	Long: `Updates fields of the named settings group without recomputing anything.
Groups and fields:
  design     x, y
  financial  years, interest_annual

Example:
  scenarios set 4f2a design x=12 y=3
  scenarios set 4f2a financial interest_annual=0.04
  scenarios set 4f2a design --clear x`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

var copyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Duplicate a scenario under a new id",
	Args:  cobra.ExactArgs(1),
	RunE:  runCopy,
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	setCmd.Flags().StringSliceVar(&clearFields, "clear", nil, "Mark a field as having no value")
}

func runAdd(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	id := reg.Add(cfg.DefaultInput())
	if err := saveRegistry(reg); err != nil {
		return err
	}

	fmt.Println(id)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	return report.WriteText(os.Stdout, report.Rows(reg.List()))
}

func runSet(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	id, err := reg.Resolve(args[0])
	if err != nil {
		return err
	}
	kind, err := settings.ParseKind(args[1])
	if err != nil {
		return err
	}
	assignments, err := parseAssignments(args[2:])
	if err != nil {
		return err
	}
	if len(assignments) == 0 && len(clearFields) == 0 {
		return fmt.Errorf("nothing to do: give at least one field=value or --clear field")
	}

	snap, err := reg.Get(id)
	if err != nil {
		return err
	}

	switch kind {
	case settings.KindDesign:
		group, err := applyDesign(snap.Input.Design, assignments, clearFields)
		if err != nil {
			return err
		}
		if err := reg.UpdateDesign(id, group); err != nil {
			return err
		}
	case settings.KindFinancial:
		group, err := applyFinancial(snap.Input.Financial, assignments, clearFields)
		if err != nil {
			return err
		}
		if err := reg.UpdateFinancial(id, group); err != nil {
			return err
		}
	}

	if err := saveRegistry(reg); err != nil {
		return err
	}

	fmt.Printf("updated %s %s\n", report.ShortID(id), kind)
	return nil
}

func runCopy(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	id, err := reg.Resolve(args[0])
	if err != nil {
		return err
	}
	newID, err := reg.Copy(id)
	if err != nil {
		return err
	}
	if err := saveRegistry(reg); err != nil {
		return err
	}

	fmt.Println(newID)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	id, err := reg.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := reg.Remove(id); err != nil {
		return err
	}
	if err := saveRegistry(reg); err != nil {
		return err
	}

	fmt.Printf("removed %s\n", report.ShortID(id))
	return nil
}

// parseAssignments parses field=value arguments into a name-to-value map.
func parseAssignments(args []string) (map[string]float64, error) {
	out := make(map[string]float64, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q (want field=value)", arg)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %q", name, raw)
		}
		out[name] = v
	}
	return out, nil
}

func applyDesign(in settings.DesignInput, sets map[string]float64, clears []string) (settings.DesignInput, error) {
	out := in.Clone()
	for name, v := range sets {
		switch name {
		case "x":
			out.X = settings.Float64(v)
		case "y":
			out.Y = settings.Float64(v)
		default:
			return settings.DesignInput{}, fmt.Errorf("unknown design field %q (valid: x, y)", name)
		}
	}
	for _, name := range clears {
		switch name {
		case "x":
			out.X = nil
		case "y":
			out.Y = nil
		default:
			return settings.DesignInput{}, fmt.Errorf("unknown design field %q (valid: x, y)", name)
		}
	}
	return out, nil
}

func applyFinancial(in settings.FinancialInput, sets map[string]float64, clears []string) (settings.FinancialInput, error) {
	out := in.Clone()
	for name, v := range sets {
		switch name {
		case "years":
			out.Years = settings.Float64(v)
		case "interest_annual":
			out.InterestAnnual = settings.Float64(v)
		default:
			return settings.FinancialInput{}, fmt.Errorf("unknown financial field %q (valid: years, interest_annual)", name)
		}
	}
	for _, name := range clears {
		switch name {
		case "years":
			out.Years = nil
		case "interest_annual":
			out.InterestAnnual = nil
		default:
			return settings.FinancialInput{}, fmt.Errorf("unknown financial field %q (valid: years, interest_annual)", name)
		}
	}
	return out, nil
}
