package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teranos/tracegraph/am"
)

var initForce bool

// InitCmd writes a default project configuration
var InitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default tracegraph.toml",
	Long: `Write tracegraph.toml with common relationships and attributes into dir
(the working directory by default). An existing file is kept unless --force
is given; the previous version is then rotated into a .back1 backup.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := argOr(args, 0)
		if dir == "" {
			dir = "."
		}
		path := filepath.Join(dir, am.ProjectConfigName)
		if err := am.WriteDefault(path, initForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
		return nil
	},
}

func init() {
	InitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing tracegraph.toml")
}
