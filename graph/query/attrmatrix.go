package query

import (
	"time"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
)

// AttributeRow holds the values of one item, aligned with the result columns.
type AttributeRow struct {
	ID     string   `json:"id"`
	Values []string `json:"values"`
}

// AttributesMatrixResult is the answer of AttributesMatrix.
type AttributesMatrixResult struct {
	Columns []string       `json:"columns"`
	Rows    []AttributeRow `json:"rows"`
}

// AttributesMatrix tabulates the requested attributes of the selected items.
// Without columns every registered attribute is listed.
func (e *Engine) AttributesMatrix(spec AttributesMatrixSpec) (*AttributesMatrixResult, error) {
	start := time.Now()
	reg := e.c.Registry()
	columns := make([]string, 0, len(spec.Columns))
	for _, id := range spec.Columns {
		if err := reg.Require(id); err != nil {
			return nil, errors.Wrap(err, "attributes matrix")
		}
		columns = append(columns, reg.Canonical(id))
	}
	if len(columns) == 0 {
		columns = reg.IDs()
	}

	ids, err := e.c.Items(spec.Filter, graph.ItemFilter{
		Attributes:     spec.Attributes,
		SortAttributes: spec.SortAttributes,
		Reverse:        spec.Reverse,
	})
	if err != nil {
		return nil, errors.Wrap(err, "attributes matrix")
	}

	result := &AttributesMatrixResult{Columns: columns, Rows: make([]AttributeRow, 0, len(ids))}
	for _, id := range ids {
		item := e.c.Item(id)
		values := make([]string, len(columns))
		for i, column := range columns {
			values[i] = item.Attribute(column)
		}
		result.Rows = append(result.Rows, AttributeRow{ID: id, Values: values})
	}
	e.trace(KindAttributesMatrix, start, len(ids))
	return result, nil
}
