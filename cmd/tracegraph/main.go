package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/tracegraph/cmd/tracegraph/commands"
	"github.com/teranos/tracegraph/display"
	"github.com/teranos/tracegraph/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tracegraph",
	Short: "tracegraph - Traceability graphs from documentation sources",
	Long: `tracegraph - Traceability graphs from documentation sources.

tracegraph reads items, attributes and relations declared in markdown and
YAML documents, checks the resulting graph for broken links, answers
traceability queries and exports the graph as JSON.

Available commands:
  build      - Ingest sources, run embedded queries and export
  export     - Print the JSON export, optionally filtered with jq
  items      - List items by id and attributes
  matrix     - Show a traceability matrix
  coverage   - Classify items by downstream coverage
  tree       - Show items as a tree
  attributes - Show a table of items by attribute values
  show       - Show one item with its attributes and relations
  init       - Write a default tracegraph.toml
  config     - Show the effective configuration and where it came from
  version    - Show version information

Examples:
  tracegraph build                       # Build and export
  tracegraph build --watch               # Rebuild on every change
  tracegraph items 'REQ-.*' --attr asil=B
  tracegraph matrix 'REQ-.*' 'TST-.*' --type validated_by
  tracegraph export --jq '.[] | select(.attributes.asil == "B") | .id'`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(display.ShouldOutputJSON(cmd), verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output JSON instead of tables")
	rootCmd.PersistentFlags().StringVarP(&commands.ConfigPath, "config", "c", "", "Config file (default: tracegraph.toml searched upward)")

	rootCmd.AddCommand(commands.BuildCmd)
	rootCmd.AddCommand(commands.ExportCmd)
	rootCmd.AddCommand(commands.ItemsCmd)
	rootCmd.AddCommand(commands.MatrixCmd)
	rootCmd.AddCommand(commands.CoverageCmd)
	rootCmd.AddCommand(commands.TreeCmd)
	rootCmd.AddCommand(commands.AttributesCmd)
	rootCmd.AddCommand(commands.ShowCmd)
	rootCmd.AddCommand(commands.InitCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
