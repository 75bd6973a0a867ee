package baseliner

import (
	"fmt"
	"os"

	"github.com/redactyl/baseliner/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgOutput string
	cfgForce  bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented .baseliner.yml",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&cfgOutput, "output", config.LocalNames[0], "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the global config location",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.GlobalPath())
		},
	}
	cfgCmd.AddCommand(pathCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if cfgForce {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(cfgOutput, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
		}
		return err
	}
	if _, err := f.WriteString(config.Template); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}
