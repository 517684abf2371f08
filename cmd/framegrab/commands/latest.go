package commands

import (
	"fmt"

	"github.com/bryanchriswhite/framegrab/internal/session"
	"github.com/spf13/cobra"
)

var latestCmd = &cobra.Command{
	Use:   "latest BASE_PATH",
	Short: "Print the most recent session directory",
	Long:  `Print the session directory recorded in BASE_PATH/run_info by the last capture.`,
	Example: `  # Open the newest session
  cd "$(framegrab latest /data/captures)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		dir, err := session.NewManager(nil, nil).ReadManifest(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(latestCmd)
}
