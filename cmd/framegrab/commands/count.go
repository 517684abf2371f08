package commands

import (
	"fmt"

	"github.com/bryanchriswhite/framegrab/internal/session"
	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count DIR",
	Short: "Count the regular files in a directory",
	Long: `Print the number of regular files directly inside DIR. Subdirectories and
symlinks to anything other than regular files are not counted; entries that
cannot be examined are logged and skipped.`,
	Example: `  framegrab count /data/captures/20240102T030405`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		n, err := session.NewManager(nil, nil).CountRegularFiles(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
