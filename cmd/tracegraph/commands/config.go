package commands

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/tracegraph/am"
	"github.com/teranos/tracegraph/display"
	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/sym"
	"github.com/teranos/tracegraph/version"
)

// ConfigCmd groups the configuration subcommands
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: sym.Short("config"),
	Long: `Display and check the tracegraph configuration.

Configuration sources (in order of precedence):
1. Environment variables (TRACEGRAPH_* prefix)
2. Project config (tracegraph.toml, searched upward from the working directory)
3. User config (~/.tracegraph/config.toml)
4. Default values

Examples:
  tracegraph config show                  # Show current configuration
  tracegraph config show --format yaml    # Show configuration as YAML
  tracegraph config validate              # Validate current configuration
  tracegraph config where                 # Show which file set which key`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate regexes, relationship pairs, the checklist setup and minimum_version",
	RunE:  runConfigValidate,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runConfigWhere,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configWhereCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if display.ShouldOutputJSON(cmd) {
		configFormat = "json"
	}

	switch configFormat {
	case "json":
		return display.OutputJSON(p.cfg)
	case "yaml":
		data, err := yaml.Marshal(p.cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# %s\n%s", p.path, data)
	case "toml":
		data, err := toml.Marshal(p.cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(out, "# %s\n%s", p.path, data)
	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	if err := p.cfg.Validate(); err != nil {
		return errors.Wrapf(err, "%s: configuration validation failed", p.path)
	}
	if err := version.Check(p.cfg.Traceability.MinimumVersion); err != nil {
		return errors.Wrapf(err, "%s", p.path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration %s is valid\n", p.path)
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(intro)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  1. [DEFAULT]  Built-in defaults")
	fmt.Fprintf(out, "  2. [USER]     %s\n", am.UserConfigPath())
	fmt.Fprintf(out, "  3. [PROJECT]  ./%s (searches up directories)\n", am.ProjectConfigName)
	fmt.Fprintln(out, "  4. [ENV]      TRACEGRAPH_* environment variables")
	fmt.Fprintln(out)

	if intro.ConfigFile != "" {
		fmt.Fprintf(out, "Active config file: %s\n", intro.ConfigFile)
	}
	for _, source := range []am.ConfigSource{am.SourceDefault, am.SourceUser, am.SourceProject, am.SourceEnvironment} {
		var lines []string
		for _, setting := range intro.Settings {
			if setting.Source != source {
				continue
			}
			value := fmt.Sprintf("%v", setting.Value)
			if len(value) > 50 {
				value = value[:47] + "..."
			}
			lines = append(lines, fmt.Sprintf("  %s = %s", setting.Key, value))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s: %d settings\n", source, len(lines))
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
	}
	return nil
}
