package graph

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/teranos/tracegraph/errors"
)

// exportedItem is the stable JSON shape of one item. Fields are declared in
// alphabetical order so the encoded keys are sorted.
type exportedItem struct {
	Attributes  map[string]string   `json:"attributes"`
	Caption     string              `json:"caption,omitempty"`
	ContentHash string              `json:"content-hash"`
	Document    string              `json:"document"`
	ID          string              `json:"id"`
	Line        int                 `json:"line"`
	Name        string              `json:"name"`
	Targets     map[string][]string `json:"targets"`
}

type exportedPlaceholder struct{}

func (it *Item) export() interface{} {
	if it.IsPlaceholder() {
		return exportedPlaceholder{}
	}
	targets := make(map[string][]string)
	for _, relation := range it.Relations() {
		if ids := it.Targets(relation); len(ids) > 0 {
			targets[relation] = ids
		}
	}
	return exportedItem{
		Attributes:  it.AttributeMap(),
		Caption:     it.Caption(),
		ContentHash: it.ContentHash(),
		Document:    it.Document(),
		ID:          it.ID(),
		Line:        it.Line(),
		Name:        it.Name(),
		Targets:     targets,
	}
}

// Export writes every item as a JSON array in natural id order. Placeholders
// are written as {}. The output only depends on the collection content.
func (c *Collection) Export(w io.Writer) error {
	ids := c.ItemIDs()
	data := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		data = append(data, c.items[id].export())
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(data); err != nil {
		return errors.Wrap(err, "encode traceability export")
	}
	return nil
}

// ExportFile writes Export output to path, creating parent directories.
func (c *Collection) ExportFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create export directory %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create export file %s", path)
	}
	if err := c.Export(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close export file %s", path)
}
