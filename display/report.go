package display

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	grapherror "github.com/teranos/tracegraph/graph/error"
	"github.com/teranos/tracegraph/sym"
)

// RenderWarnings prints build warnings as a table, most useful location first
func RenderWarnings(out io.Writer, warnings []*grapherror.GraphError) error {
	if len(warnings) == 0 {
		fmt.Fprintln(out, pterm.Green("No warnings"))
		return nil
	}
	data := pterm.TableData{{"Location", "Stage", "Kind", "Message"}}
	for _, w := range warnings {
		loc := w.Location()
		if loc == "" {
			loc = "-"
		}
		msg := w.UserMessage
		if w.Err != nil {
			msg = w.Err.Error()
		}
		stage := w.Category.String()
		if glyph := sym.StageGlyph(stage); glyph != "" {
			stage = glyph + " " + stage
		}
		data = append(data, []string{loc, stage, w.Subcategory, msg})
	}
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, s)
	fmt.Fprintln(out, pterm.Yellow(fmt.Sprintf("%d warning(s)", len(warnings))))
	return nil
}
