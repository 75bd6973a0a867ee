package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/redactyl/baseliner/internal/baseline"
)

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	Cached       int
	FileErrors   int
}

// PrintTable writes records as a table followed by a summary footer.
// Records are expected in baseline order.
func PrintTable(w io.Writer, records []baseline.Record, opts PrintOptions) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No new secrets found ✅")
	} else {
		fmt.Fprintf(w, "New records: %d\n", len(records))
		table := tablewriter.NewWriter(w)
		table.Header("Status", "Type", "Location", "Hash")
		for _, r := range records {
			status := string(r.Classification)
			if !opts.NoColor {
				status = colorClassification(r.Classification)
			}
			row := []string{status, r.Type, r.Filename + ":" + strconv.Itoa(r.LineNumber), shortHash(r.HashedSecret)}
			if err := table.Append(row); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	printFooter(w, records, opts)
	return nil
}

// PrintText is the plain, one line per record form of PrintTable.
func PrintText(w io.Writer, records []baseline.Record, opts PrintOptions) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No new secrets found ✅")
	} else {
		maxType := 8
		for _, r := range records {
			if l := len(r.Type); l > maxType {
				maxType = l
			}
		}
		fmt.Fprintf(w, "New records: %d\n", len(records))
		for _, r := range records {
			status := string(r.Classification)
			if !opts.NoColor {
				status = colorClassification(r.Classification)
			}
			fmt.Fprintf(w, "%-14s %-*s %s:%d  %s\n", status, maxType, r.Type, r.Filename, r.LineNumber, shortHash(r.HashedSecret))
		}
	}
	printFooter(w, records, opts)
}

func printFooter(w io.Writer, records []baseline.Record, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "New records: %d\n", len(records))
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.Cached > 0 {
		fmt.Fprintf(w, "Files unchanged: %d\n", opts.Cached)
	}
	if opts.FileErrors > 0 {
		fmt.Fprintf(w, "Files failed: %d\n", opts.FileErrors)
	}
}

func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}

func colorClassification(c baseline.Classification) string {
	switch c {
	case baseline.Secret:
		return "\x1b[31msecret\x1b[0m" // red
	case baseline.FalsePositive:
		return "\x1b[32mfalse_positive\x1b[0m" // green
	default:
		return "\x1b[33munclassified\x1b[0m" // yellow
	}
}
