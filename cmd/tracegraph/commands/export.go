package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/teranos/tracegraph/am"
	"github.com/teranos/tracegraph/display"
	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/sym"
)

var (
	exportJQ     string
	exportOutput string
)

// ExportCmd prints the JSON export of a build
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: sym.Short("export"),
	Long: `Build the project and print its JSON export to stdout, or write it to a file
with --output. --jq filters the export with a jq expression; every result is
printed on its own.

Examples:
  tracegraph export -o traceability.json
  tracegraph export --jq 'length'
  tracegraph export --jq 'map(select(.attributes.asil == "B") | .id)'`,
	RunE: runExport,
}

func init() {
	ExportCmd.Flags().StringVar(&exportJQ, "jq", "", "Filter the export with a jq expression")
	ExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	_, b, err := buildQuiet(cmd.Context())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := b.Collection.Export(&buf); err != nil {
		return err
	}

	data := buf.Bytes()
	if exportJQ != "" {
		var filtered bytes.Buffer
		err := filterJSON(data, exportJQ, func(v interface{}) error {
			line, err := display.MarshalJSON(v)
			if err != nil {
				return err
			}
			filtered.Write(line)
			filtered.WriteByte('\n')
			return nil
		})
		if err != nil {
			return err
		}
		data = filtered.Bytes()
	}

	if exportOutput != "" {
		return errors.Wrapf(os.WriteFile(exportOutput, data, am.DefaultFilePermissions),
			"write export %s", exportOutput)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
	return err
}

// filterJSON runs the jq expression over data and passes every result to emit
func filterJSON(data []byte, expr string, emit func(v interface{}) error) error {
	q, err := gojq.Parse(expr)
	if err != nil {
		return errors.Wrapf(err, "invalid jq expression %q", expr)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return errors.Wrapf(err, "compile jq expression %q", expr)
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return errors.Wrap(err, "decode export")
	}
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := v.(error); isErr {
			if errors.As(err, new(*gojq.HaltError)) {
				return nil
			}
			return errors.Wrapf(err, "jq %q", expr)
		}
		if err := emit(v); err != nil {
			return err
		}
	}
}
