package baseliner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/redactyl/baseliner/internal/audit"
	"github.com/spf13/cobra"
)

var (
	histPath  string
	histLimit int
	histJSON  bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded scans",
		RunE:  runHistory,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().StringVarP(&histPath, "path", "p", ".", "root of the scanned tree")
	cmd.Flags().IntVarP(&histLimit, "limit", "n", 10, "show at most N scans (0 = all)")
	cmd.Flags().BoolVar(&histJSON, "json", false, "emit JSON")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	root, err := filepath.Abs(histPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	recs, err := audit.NewHistory(root).Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if histLimit > 0 && len(recs) > histLimit {
		recs = recs[:histLimit]
	}
	if histJSON {
		if recs == nil {
			recs = []audit.ScanRecord{}
		}
		return printJSON(out, recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "No scans recorded.")
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(out, "%s  files=%-6d records=%-5d new=%-4d secret=%d fp=%d unclassified=%d  %s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.FilesScanned, r.Records, r.NewRecords,
			r.Counts.Secret, r.Counts.FalsePositive, r.Counts.Unclassified, r.Duration)
	}
	return nil
}
