package baseliner

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/redactyl/baseliner/internal/audit"
	"github.com/redactyl/baseliner/internal/baseline"
	"github.com/redactyl/baseliner/internal/config"
	"github.com/redactyl/baseliner/internal/report"
	"github.com/redactyl/baseliner/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultBaseline = ".secrets.baseline"

var (
	flagPath           string
	flagBaseline       string
	flagUpdate         bool
	flagMissing        string
	flagInclude        string
	flagExclude        string
	flagMaxBytes       int64
	flagTrackedOnly    bool
	flagJSON           bool
	flagSARIF          bool
	flagText           bool
	flagMetricsFile    string
	flagFailOn         string
	flagExcludeLines   string
	flagExcludeFiles   string
	flagExcludeSecrets string
	flagWordList       string
	flagWordListMin    int
	flagNoHistory      bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [files...]",
		Short: "Scan files and compare the results with the baseline",
		Long: `Scan the tree (or only the given files) for potential secrets and merge
the results into the baseline. Without --update nothing is written and the
command only reports records that are not in the baseline yet.`,
		Example: `  baseliner scan --missing drop --update
  baseliner scan --json src/config.py    # files are relative to --path`,
		RunE: runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "root of the tree to scan")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "", "baseline file (default <path>/"+defaultBaseline+")")
	cmd.Flags().BoolVar(&flagUpdate, "update", false, "write the merged baseline")
	cmd.Flags().StringVar(&flagMissing, "missing", "", "records of scanned files that are no longer found: drop | retain")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "skip files larger than this (default 1 MiB)")
	cmd.Flags().BoolVar(&flagTrackedOnly, "tracked-only", false, "only scan files tracked by git")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "emit new records as JSON")
	cmd.Flags().BoolVar(&flagSARIF, "sarif", false, "emit the baseline as SARIF 2.1.0")
	cmd.Flags().BoolVar(&flagText, "text", false, "output in plain text columnar format")
	cmd.Flags().StringVar(&flagMetricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "exit 1 on: none | secret | unclassified (default unclassified)")
	cmd.Flags().StringVar(&flagExcludeLines, "exclude-lines", "", "regex of lines to ignore")
	cmd.Flags().StringVar(&flagExcludeFiles, "exclude-files", "", "regex of file names to ignore")
	cmd.Flags().StringVar(&flagExcludeSecrets, "exclude-secrets", "", "regex of secret values to ignore")
	cmd.Flags().StringVar(&flagWordList, "word-list", "", "file of words; secrets containing one are ignored")
	cmd.Flags().IntVar(&flagWordListMin, "word-list-min-length", 0, "ignore shorter words in --word-list")
	cmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "do not record the scan in the history log")
}

func runScan(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(flagPath)
	if err != nil {
		return err
	}
	lcfg, gcfg, err := loadConfigs(root)
	if err != nil {
		return err
	}

	policy, err := baseline.ParseMissingPolicy(pickString(flagMissing, lcfg.MissingPolicy, gcfg.MissingPolicy))
	if err != nil {
		return fmt.Errorf("%w (set --missing or missing_policy in the config)", err)
	}
	failOn, err := report.ParseFailOn(pickString(flagFailOn, lcfg.FailOn, gcfg.FailOn))
	if err != nil {
		return err
	}
	baselinePath := flagBaseline
	if baselinePath == "" {
		name := pickString("", lcfg.Baseline, gcfg.Baseline)
		if name == "" {
			name = defaultBaseline
		}
		baselinePath = filepath.Join(root, name)
	}

	fc := effectiveConfig(lcfg, gcfg)
	defaultExcludes := flagDefaultExcludes
	if !cmd.Flags().Changed("default-excludes") {
		if v := firstBool(lcfg.DefaultExcludes, gcfg.DefaultExcludes); v != nil {
			defaultExcludes = *v
		}
	}
	noColor := pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor)
	quiet := flagJSON || flagSARIF

	var scanned atomic.Int64
	progress := func() {}
	if !quiet && term.IsTerminal(int(os.Stderr.Fd())) {
		progress = func() {
			if n := scanned.Add(1); n%100 == 0 {
				fmt.Fprintf(os.Stderr, "\rscanned %d files", n)
			}
		}
	}

	opts := core.UpdateOptions{
		Scan: core.Config{
			Root:            root,
			IncludeGlobs:    pickString(flagInclude, lcfg.Include, gcfg.Include),
			ExcludeGlobs:    pickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
			MaxBytes:        pickInt64(flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
			Threads:         pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
			DefaultExcludes: defaultExcludes,
			TrackedOnly:     pickBool(flagTrackedOnly, lcfg.TrackedOnly, gcfg.TrackedOnly),
			Paths:           args,
			NoCache:         flagNoCache,
			Progress:        progress,
		},
		BaselinePath: baselinePath,
		Plugins:      fc.PluginConfigs(),
		Filters:      fc.FilterConfigs(),
		Policy:       policy,
	}
	u, err := core.Update(cmd.Context(), opts)
	if scanned.Load() >= 100 {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}
	res := u.Scan
	for name, ferr := range res.FileErrors {
		slog.Warn("file skipped", "path", name, "error", ferr)
	}

	if flagUpdate {
		if err := u.Commit(); err != nil {
			return err
		}
		slog.Info("baseline written", "path", baselinePath, "records", u.Baseline.Count())
	}
	if !flagNoHistory {
		rec := audit.NewScanRecord(root, relativePath(root, baselinePath), u.Baseline, u.New, res.FilesScanned, len(res.FileErrors), res.Duration)
		if _, err := audit.NewHistory(root).Append(rec); err != nil {
			slog.Warn("could not record scan history", "error", err)
		}
	}
	if flagMetricsFile != "" {
		m := report.NewMetrics()
		m.ObserveScan(res.FilesScanned, len(res.Cached), len(res.FileErrors), len(u.New), res.Duration)
		m.ObserveBaseline(audit.Stats(u.Baseline))
		if err := m.WriteTextfile(flagMetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if err := writeScanOutput(cmd.OutOrStdout(), u, noColor); err != nil {
		return err
	}
	if report.ShouldFail(u.Baseline, failOn) {
		return errFailed
	}
	return nil
}

func writeScanOutput(w io.Writer, u *core.UpdateResult, noColor bool) error {
	switch {
	case flagJSON:
		return core.MarshalRecords(w, u.New)
	case flagSARIF:
		return report.WriteSARIF(w, u.Baseline, version)
	}
	po := report.PrintOptions{
		NoColor:      noColor,
		Duration:     u.Scan.Duration,
		FilesScanned: u.Scan.FilesScanned,
		Cached:       len(u.Scan.Cached),
		FileErrors:   len(u.Scan.FileErrors),
	}
	if flagText {
		report.PrintText(w, u.New, po)
		return nil
	}
	return report.PrintTable(w, u.New, po)
}

// effectiveConfig folds the CLI shorthands over the local and global
// configs. Detector and filter lists come from the nearest config that
// sets them.
func effectiveConfig(local, global config.FileConfig) config.FileConfig {
	fc := config.FileConfig{
		Plugins:           local.Plugins,
		Filters:           local.Filters,
		ExcludeLines:      strPtr(pickString(flagExcludeLines, local.ExcludeLines, global.ExcludeLines)),
		ExcludeFiles:      strPtr(pickString(flagExcludeFiles, local.ExcludeFiles, global.ExcludeFiles)),
		ExcludeSecrets:    strPtr(pickString(flagExcludeSecrets, local.ExcludeSecrets, global.ExcludeSecrets)),
		WordList:          strPtr(pickString(flagWordList, local.WordList, global.WordList)),
		WordListMinLength: intPtr(pickInt(flagWordListMin, local.WordListMinLength, global.WordListMinLength)),
	}
	if len(fc.Plugins) == 0 {
		fc.Plugins = global.Plugins
	}
	if len(fc.Filters) == 0 {
		fc.Filters = global.Filters
	}
	return fc
}

func relativePath(root, p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	if rel, err := filepath.Rel(root, abs); err == nil {
		return filepath.ToSlash(rel)
	}
	return abs
}

func firstBool(vs ...*bool) *bool {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

// printJSON is shared by the commands that offer --json.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
