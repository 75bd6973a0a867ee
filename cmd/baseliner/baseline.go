package baseliner

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/redactyl/baseliner/internal/baseline"
	"github.com/spf13/cobra"
)

var upgCheck bool

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baseline files",
	}

	upgrade := &cobra.Command{
		Use:   "upgrade [FILE]",
		Short: "Rewrite a baseline in the current format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultBaseline
			if len(args) == 1 {
				path = args[0]
			}
			from, err := recordedVersion(path)
			if err != nil {
				return err
			}
			b, err := baseline.Load(path)
			if err != nil {
				return err
			}
			if from == b.Version {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already at version %s\n", path, b.Version)
				return nil
			}
			if upgCheck {
				fmt.Fprintf(cmd.OutOrStdout(), "%s needs an upgrade from %s to %s\n", path, from, b.Version)
				return errFailed
			}
			if err := baseline.Save(path, b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Upgraded %s from %s to %s\n", path, from, b.Version)
			return nil
		},
	}
	upgrade.Flags().BoolVar(&upgCheck, "check", false, "only report whether an upgrade is needed (exit 1 if so)")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(upgrade)
}

// recordedVersion reads the version field without migrating the document.
func recordedVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var head struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return head.Version, nil
}
