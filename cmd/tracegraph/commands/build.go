package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tracegraph/build"
	"github.com/teranos/tracegraph/display"
	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/sym"
)

var (
	buildWatch    bool
	buildNoExport bool
	buildStrict   bool
)

// BuildCmd runs a full build
var BuildCmd = &cobra.Command{
	Use:   "build",
	Short: sym.Short("build"),
	Long: `Ingest every source document, check the graph, render the queries the
documents declare and write the JSON export.

Problems with single declarations are reported as warnings and the
declaration is skipped. With --strict any warning fails the build.

Examples:
  tracegraph build
  tracegraph build --watch
  tracegraph build --json > build.json`,
	RunE: runBuild,
}

func init() {
	BuildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "Rebuild whenever the config or a source changes")
	BuildCmd.Flags().BoolVar(&buildNoExport, "no-export", false, "Skip writing the JSON export")
	BuildCmd.Flags().BoolVar(&buildStrict, "strict", false, "Fail when the build reports warnings")
}

func runBuild(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	jsonOutput := display.ShouldOutputJSON(cmd)
	out := cmd.OutOrStdout()
	var render io.Writer
	if !jsonOutput {
		render = out
	}
	opts := p.options(render, buildNoExport)

	if buildWatch {
		return build.Watch(cmd.Context(), p.cfg, build.WatchOptions{
			Options: opts,
			OnBuild: func(b *build.Build, err error) {
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), pterm.Red(err.Error()))
					return
				}
				report(out, b, jsonOutput)
			},
		})
	}

	b, err := build.Run(cmd.Context(), p.cfg, opts)
	if err != nil {
		return err
	}
	if err := report(out, b, jsonOutput); err != nil {
		return err
	}
	if buildStrict && len(b.Summary.Warnings) > 0 {
		return errors.Newf("build reported %d warning(s)", len(b.Summary.Warnings))
	}
	return nil
}

func report(out io.Writer, b *build.Build, jsonOutput bool) error {
	if jsonOutput {
		return display.OutputJSON(b.Summary)
	}
	if err := display.RenderWarnings(out, b.Summary.Warnings); err != nil {
		return err
	}
	s := b.Summary
	fmt.Fprintf(out, "Build %s: %d document(s), %d item(s), %d quer(y/ies) in %s\n",
		s.BuildID[:8], len(s.Documents), s.Items, len(s.Queries), s.Duration.Round(1e6))
	if s.ExportPath != "" {
		fmt.Fprintf(out, "Exported to %s\n", s.ExportPath)
	}
	return nil
}
