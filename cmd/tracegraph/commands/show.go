package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/tracegraph/display"
	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/sym"
)

// itemView is the JSON form of `tracegraph show`
type itemView struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Caption     string              `json:"caption,omitempty"`
	Placeholder bool                `json:"placeholder,omitempty"`
	Document    string              `json:"document,omitempty"`
	Line        int                 `json:"line,omitempty"`
	Content     string              `json:"content,omitempty"`
	Attributes  map[string]string   `json:"attributes,omitempty"`
	Targets     map[string][]string `json:"targets,omitempty"`
}

// ShowCmd prints one item
var ShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: sym.Short("show"),
	Long: `Show where an item is declared, its content, its attributes and every
item it relates to, explicit or implied by a reverse relation.

Examples:
  tracegraph show REQ-1
  tracegraph show REQ-1 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, b, err := buildQuiet(cmd.Context())
		if err != nil {
			return err
		}
		item := b.Collection.Item(args[0])
		if item == nil {
			return errors.NewNotFoundf("item %s", args[0])
		}
		if display.ShouldOutputJSON(cmd) {
			v := itemView{
				ID:          item.ID(),
				Name:        item.Name(),
				Caption:     item.Caption(),
				Placeholder: item.IsPlaceholder(),
				Document:    item.Document(),
				Line:        item.Line(),
				Content:     item.Content(),
				Attributes:  item.AttributeMap(),
				Targets:     make(map[string][]string),
			}
			for _, relation := range item.Relations() {
				v.Targets[relation] = item.Targets(relation)
			}
			return display.OutputJSON(v)
		}
		r, err := display.NewRenderer(cmd.OutOrStdout(), b.Engine, p.cfg.Traceability)
		if err != nil {
			return err
		}
		return r.RenderItem(args[0])
	},
}
