package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tracegraph/am"
)

func TestExternalURL(t *testing.T) {
	tests := []struct {
		template, target, want string
	}{
		{"https://jira/browse/field1", "PRJ-7", "https://jira/browse/PRJ-7"},
		{"https://tool/field1/item?id=field2", "alpha:42", "https://tool/alpha/item?id=42"},
		{"https://x/field1", "a:b", "https://x/a"},
		{"https://x/field2", "a", "https://x/field2"},
		{"https://x/field10/field1", "1:2:3:4:5:6:7:8:9:ten", "https://x/ten/1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExternalURL(tt.template, tt.target), tt.template)
	}
}

func TestLinker(t *testing.T) {
	cfg := am.TraceabilityConfig{
		ExternalRelationshipToURL: map[string]string{"ext_issue": "https://issues/field1"},
		HyperlinkColors: []am.HyperlinkColor{
			{Regex: "^REQ", Colors: []string{"red", "blue"}},
			{Regex: "^TST", Colors: []string{"green"}},
		},
		ClassNames: []am.ClassName{{Colors: []string{"Red", "Blue"}, Class: "req-link"}},
	}
	l, err := NewLinker(cfg)
	require.NoError(t, err)

	assert.Equal(t, "https://issues/BUG-1", l.URL("ext_issue", "BUG-1"))
	assert.Empty(t, l.URL("ext_other", "BUG-1"))

	assert.Equal(t, "req-link", l.Class("REQ-1"))
	assert.Equal(t, "tracegraph-color-1", l.Class("TST-1"))
	assert.Empty(t, l.Class("DOC-1"))

	def, hover, active := l.Colors("REQ-1")
	assert.Equal(t, []string{"red", "blue", ""}, []string{def, hover, active})

	_, err = NewLinker(am.TraceabilityConfig{HyperlinkColors: []am.HyperlinkColor{{Regex: "("}}})
	assert.Error(t, err)
}
