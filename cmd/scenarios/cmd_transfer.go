package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a scenario's settings as portable JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Create a scenario from an exported JSON document",
	Long: `Reads an export document from the given file, or from stdin when no file
(or "-") is given. Unknown keys are ignored; missing fields fall back to
the stock defaults (x=1, y=2, years=10, interest_annual=0.05).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Write to a file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	id, err := reg.Resolve(args[0])
	if err != nil {
		return err
	}
	data, err := reg.Export(id)
	if err != nil {
		return err
	}

	if exportOut != "" {
		return os.WriteFile(exportOut, append(data, '\n'), 0644)
	}
	fmt.Println(string(data))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read import document: %w", err)
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	id, err := reg.Import(data)
	if err != nil {
		return err
	}
	if err := saveRegistry(reg); err != nil {
		return err
	}

	fmt.Println(id)
	return nil
}
