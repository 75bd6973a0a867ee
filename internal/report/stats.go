package report

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/redactyl/baseliner/internal/audit"
)

// PrintStats renders an audit summary as one row per detector type and a
// total row.
func PrintStats(w io.Writer, s audit.Summary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Type", "Secret", "False positive", "Unclassified", "Missing", "Total")
	for _, t := range s.Types() {
		if err := table.Append(countsRow(t, s.ByType[t])); err != nil {
			return err
		}
	}
	if err := table.Append(countsRow("TOTAL", s.Overall)); err != nil {
		return err
	}
	return table.Render()
}

// WriteStatsJSON writes the summary for machine consumption.
func WriteStatsJSON(w io.Writer, s audit.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func countsRow(label string, c audit.Counts) []string {
	return []string{
		label,
		strconv.Itoa(c.Secret),
		strconv.Itoa(c.FalsePositive),
		strconv.Itoa(c.Unclassified),
		strconv.Itoa(c.Missing),
		strconv.Itoa(c.Total()),
	}
}
