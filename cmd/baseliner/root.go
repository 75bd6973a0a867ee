package baseliner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/redactyl/baseliner/internal/config"
	"github.com/redactyl/baseliner/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagThreads         int
	flagNoColor         bool
	flagNoCache         bool
	flagDefaultExcludes bool
	flagLogLevel        string
	flagLogFormat       string

	version = "1.1.0"
)

// errFailed is returned when a scan finds records the fail-on policy rejects
// or a --check finds work to do. It exits 1; every other error exits 2.
var errFailed = errors.New("check failed")

// rootCmd is the base Cobra command for the baseliner CLI.
var rootCmd = &cobra.Command{
	Use:               "baseliner",
	Short:             "Track potential secrets in a baseline and audit them",
	Long:              "baseliner scans a tree for potential secrets, records them in a baseline file and lets you label each one as a real secret or a false positive.",
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the baseliner CLI. It should be called by the main package.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFailed):
		return 1
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "disable incremental scan cache")
	rootCmd.PersistentFlags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "apply built-in exclude list (node_modules, dist, .git, etc.)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug | info | warn | error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text | json")
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	lcfg, gcfg, err := loadConfigs(".")
	if err != nil {
		return err
	}
	level := pickString(flagLogLevel, lcfg.LogLevel, gcfg.LogLevel)
	format := pickString(flagLogFormat, lcfg.LogFormat, gcfg.LogFormat)
	_, err = logging.Setup(cmd.ErrOrStderr(), level, format)
	return err
}

// loadConfigs returns the local config found in root and the global
// config. Missing files yield empty configs; unreadable ones are errors.
func loadConfigs(root string) (local, global config.FileConfig, err error) {
	global, err = config.LoadGlobal()
	if err != nil && !errors.Is(err, config.ErrNoGlobalConfig) {
		return local, global, fmt.Errorf("global config: %w", err)
	}
	local, err = config.LoadLocal(root)
	if err != nil && !errors.Is(err, config.ErrNoLocalConfig) {
		return local, global, fmt.Errorf("local config: %w", err)
	}
	return local, global, nil
}
