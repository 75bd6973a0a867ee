package baseliner

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redactyl/baseliner/internal/audit"
	"github.com/redactyl/baseliner/internal/baseline"
	"github.com/redactyl/baseliner/internal/report"
	"github.com/redactyl/baseliner/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	audDiff    bool
	audStats   bool
	audAll     bool
	audJSON    bool
	audRoot    string
	audContext int
	audNoTUI   bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "audit [BASELINE]",
		Short: "Label baseline records as secrets or false positives",
		Long: `Walk through the records of a baseline and label each one. Labels are
saved after every answer.

With --diff A B the records that differ between two baselines are shown
instead; nothing is written. With --stats the labelling progress is
summarised per detector.`,
		Example: `  baseliner audit
  baseliner audit --all .secrets.baseline
  baseliner audit --diff old.baseline .secrets.baseline
  baseliner audit --stats --json`,
		Args: cobra.MaximumNArgs(2),
		RunE: runAudit,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().BoolVar(&audDiff, "diff", false, "compare two baselines")
	cmd.Flags().BoolVar(&audStats, "stats", false, "print labelling statistics")
	cmd.Flags().BoolVar(&audAll, "all", false, "review every record, not only unlabelled ones")
	cmd.Flags().BoolVar(&audJSON, "json", false, "emit --stats or --diff output as JSON")
	cmd.Flags().StringVar(&audRoot, "root", "", "directory record paths are relative to (default: the baseline's directory)")
	cmd.Flags().IntVar(&audContext, "context", 3, "lines of context shown around each record")
	cmd.Flags().BoolVar(&audNoTUI, "no-tui", false, "use the line prompt even on a terminal")
	cmd.MarkFlagsMutuallyExclusive("diff", "stats")
}

func auditMode() audit.Mode {
	switch {
	case audDiff:
		return audit.ModeDiff
	case audStats:
		return audit.ModeStats
	}
	return audit.ModeLabel
}

func runAudit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	mode := auditMode()
	if mode == audit.ModeDiff {
		if len(args) != 2 {
			return fmt.Errorf("--diff needs two baseline files")
		}
		return runAuditDiff(cmd, out, args[0], args[1])
	}
	if len(args) > 1 {
		return fmt.Errorf("expected one baseline file, got %d", len(args))
	}
	path := defaultBaseline
	if len(args) == 1 {
		path = args[0]
	}
	b, err := baseline.Load(path)
	if err != nil {
		return err
	}
	if mode == audit.ModeStats {
		s := audit.Stats(b)
		if audJSON {
			return report.WriteStatsJSON(out, s)
		}
		return report.PrintStats(out, s)
	}

	root := recordRoot(path)
	var opts []audit.SessionOption
	if audAll {
		opts = append(opts, audit.WithAll())
	}
	s := audit.NewSession(b, audit.SaveTo(path), opts...)
	slog.Debug("audit started", "mode", mode, "baseline", path, "root", root, "records", b.Count())

	if !audNoTUI && isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		return tui.Run(s, root)
	}
	p := audit.NewLinePrompter(cmd.InOrStdin(), out, audit.FileContext(root, audContext))
	if err := s.Run(cmd.Context(), p); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nLabelled %d records.\n", s.Labeled())
	return nil
}

func runAuditDiff(cmd *cobra.Command, out io.Writer, pathA, pathB string) error {
	a, err := baseline.Load(pathA)
	if err != nil {
		return err
	}
	b, err := baseline.Load(pathB)
	if err != nil {
		return err
	}
	d := audit.Compare(a, b)
	if audJSON {
		return printJSON(out, diffJSON(d))
	}
	if d.Empty() {
		fmt.Fprintln(out, "No differences.")
		return nil
	}
	fmt.Fprintf(out, "Only in %s: %d\nOnly in %s: %d\nRelabelled: %d\n", pathA, len(d.OnlyInA), pathB, len(d.OnlyInB), len(d.Changed))
	p := audit.NewLinePrompter(cmd.InOrStdin(), out, audit.FileContext(recordRoot(pathB), audContext))
	return audit.NewDiffSession(d).Run(cmd.Context(), p)
}

type diffEntry struct {
	Partition audit.Partition         `json:"partition"`
	Record    *baseline.Record        `json:"record"`
	Previous  baseline.Classification `json:"previous_classification,omitempty"`
}

func diffJSON(d audit.Diff) []diffEntry {
	out := []diffEntry{}
	for _, e := range d.Entries() {
		de := diffEntry{Partition: e.Partition, Record: e.Record()}
		if e.Partition == audit.Changed {
			de.Record, de.Previous = e.B, e.A.Classification
		}
		out = append(out, de)
	}
	return out
}

func recordRoot(baselinePath string) string {
	if audRoot != "" {
		return audRoot
	}
	return filepath.Dir(baselinePath)
}

func isTerminal(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }
