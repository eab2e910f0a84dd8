package commands

import (
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teranos/tracegraph/am"
	"github.com/teranos/tracegraph/build"
	"github.com/teranos/tracegraph/display"
	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph/query"
)

// ConfigPath is the --config flag; empty searches for tracegraph.toml
var ConfigPath string

// project is the loaded configuration and the directory sources resolve against
type project struct {
	cfg  *am.Config
	path string
	root string
}

func loadProject() (*project, error) {
	if ConfigPath != "" {
		cfg, err := am.LoadFromFile(ConfigPath)
		if err != nil {
			return nil, err
		}
		return &project{cfg: cfg, path: ConfigPath, root: filepath.Dir(ConfigPath)}, nil
	}
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	path := am.GetViper().ConfigFileUsed()
	if path == "" {
		return nil, errors.WithHint(errors.New("no tracegraph.toml found"),
			"run 'tracegraph init' or pass --config")
	}
	return &project{cfg: cfg, path: path, root: am.ProjectDir()}, nil
}

func (p *project) options(out io.Writer, noExport bool) build.Options {
	return build.Options{Root: p.root, ConfigFile: p.path, Out: out, NoExport: noExport}
}

// buildQuiet builds the project without rendering or exporting, for the
// query commands
func buildQuiet(ctx context.Context) (*project, *build.Build, error) {
	p, err := loadProject()
	if err != nil {
		return nil, nil, err
	}
	b, err := build.Run(ctx, p.cfg, p.options(nil, true))
	if err != nil {
		return nil, nil, err
	}
	return p, b, nil
}

// runQuery builds the project and prints the answer to spec
func runQuery(cmd *cobra.Command, title string, spec query.Spec) error {
	p, b, err := buildQuiet(cmd.Context())
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		res, err := b.Engine.Run(spec)
		if err != nil {
			return err
		}
		return display.OutputJSON(res)
	}
	r, err := display.NewRenderer(cmd.OutOrStdout(), b.Engine, p.cfg.Traceability)
	if err != nil {
		return err
	}
	_, err = r.Render(title, spec)
	return err
}
