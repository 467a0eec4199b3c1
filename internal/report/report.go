// Package report renders the consolidated all-scenarios results view as
// text, CSV, or JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/emunsing/webscenarios/internal/registry"
	"github.com/emunsing/webscenarios/internal/settings"
	"github.com/emunsing/webscenarios/internal/stage"
)

// Row is one scenario in the consolidated report. Output is nil when the
// scenario has not been run yet.
type Row struct {
	ID        string                  `json:"id"`
	Design    settings.DesignInput    `json:"design"`
	Financial settings.FinancialInput `json:"financial"`
	Output    *stage.Output           `json:"output,omitempty"`
}

// Rows converts registry snapshots into report rows.
func Rows(snaps []registry.Snapshot) []Row {
	rows := make([]Row, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, Row{
			ID:        s.ID,
			Design:    s.Input.Design,
			Financial: s.Input.Financial,
			Output:    s.LastOutput,
		})
	}
	return rows
}

// ShortID trims a scenario id for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// WriteText writes an aligned table of all rows. Absent input fields and
// not-yet-run outputs render as "-".
func WriteText(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tX\tY\tYEARS\tINTEREST\tPERFORMANCE\tPRINCIPAL\tPAYMENT")
	for _, r := range rows {
		perf, principal, payment := "-", "-", "-"
		if r.Output != nil {
			perf = formatFloat(r.Output.Performance)
			principal = formatFloat(r.Output.Principal)
			payment = formatFloat(r.Output.MonthlyPayment)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ShortID(r.ID),
			displayPtr(r.Design.X), displayPtr(r.Design.Y),
			displayPtr(r.Financial.Years), displayPtr(r.Financial.InterestAnnual),
			perf, principal, payment)
	}
	return tw.Flush()
}

// WriteCSV writes all rows as CSV with a header row. Ids are written in
// full so the file can be joined back against the workspace.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	header := []string{"id", "x", "y", "years", "interest_annual", "performance", "principal", "monthly_payment"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.ID,
			csvPtr(r.Design.X), csvPtr(r.Design.Y),
			csvPtr(r.Financial.Years), csvPtr(r.Financial.InterestAnnual),
			"", "", "",
		}
		if r.Output != nil {
			record[5] = formatFloat(r.Output.Performance)
			record[6] = formatFloat(r.Output.Principal)
			record[7] = formatFloat(r.Output.MonthlyPayment)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes all rows as a pretty-printed JSON array.
func WriteJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func displayPtr(p *float64) string {
	if p == nil {
		return "-"
	}
	return formatFloat(*p)
}

func csvPtr(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}
