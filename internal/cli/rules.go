package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ContractForgeEVM/contractforge/internal/catalog"
	"github.com/ContractForgeEVM/contractforge/internal/model"
	"github.com/ContractForgeEVM/contractforge/internal/plugins"
)

var severityColor = map[model.Severity]*color.Color{
	model.SeverityCritical: color.New(color.FgRed, color.Bold),
	model.SeverityHigh:     color.New(color.FgRed),
	model.SeverityMedium:   color.New(color.FgYellow),
	model.SeverityLow:      color.New(color.FgCyan),
}

type ruleRow struct {
	ID          string         `yaml:"id"`
	Severity    model.Severity `yaml:"severity"`
	Builtin     bool           `yaml:"builtin"`
	Description string         `yaml:"description,omitempty"`
}

func catalogRows() []ruleRow {
	reg := plugins.Builtin()
	entries := catalog.Default.Entries()
	rows := make([]ruleRow, 0, len(entries))
	for _, e := range entries {
		row := ruleRow{ID: e.ID, Severity: e.Severity}
		if d, ok := reg.Lookup(e.ID); ok {
			row.Builtin = true
			row.Description = d.Description()
		}
		rows = append(rows, row)
	}
	return rows
}

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "rules", Short: "Inspect the detector catalog"}
	var format string
	list := &cobra.Command{
		Use:   "list",
		Short: "List cataloged detectors in run order",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := catalogRows()
			switch format {
			case "yaml":
				b, err := yaml.Marshal(rows)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			case "table", "":
				writeTable(cmd.OutOrStdout(), rows)
				return nil
			}
			return fmt.Errorf("unknown format %q (want table or yaml)", format)
		},
	}
	list.Flags().StringVarP(&format, "format", "f", "table", "Output format: table|yaml")
	cmd.AddCommand(list)
	return cmd
}

func writeTable(w io.Writer, rows []ruleRow) {
	var counts model.Summary
	builtin := 0
	fmt.Fprintf(w, "%-32s %-8s %-8s %s\n", "ID", "BUILTIN", "SEVERITY", "DESCRIPTION")
	for _, r := range rows {
		mark := "-"
		if r.Builtin {
			mark = "yes"
			builtin++
		}
		// pad before colouring so escape codes do not skew the columns
		sev := fmt.Sprintf("%-8s", r.Severity)
		if c, ok := severityColor[r.Severity]; ok {
			sev = c.Sprint(sev)
		}
		fmt.Fprintf(w, "%-32s %-8s %s %s\n", r.ID, mark, sev, r.Description)
		counts.Add(r.Severity)
	}
	fmt.Fprintf(w, "\n%d detectors (%d built in): critical %d, high %d, medium %d, low %d\n",
		counts.Total, builtin, counts.Critical, counts.High, counts.Medium, counts.Low)
}
