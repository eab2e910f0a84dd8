package graph

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tracegraph/errors"
)

// newTestCollection returns a collection with the relation pairs used across
// these tests.
func newTestCollection(t *testing.T, opts ...Option) *Collection {
	t.Helper()
	c := NewCollection(newTestRegistry(t), opts...)
	require.NoError(t, c.AddRelationPair("impacts", "impacted_by"))
	require.NoError(t, c.AddRelationPair("validates", "validated_by"))
	require.NoError(t, c.AddRelationPair("ext_jira", ""))
	return c
}

func declare(t *testing.T, c *Collection, id string, attrs ...string) *Item {
	t.Helper()
	require.Zero(t, len(attrs)%2, "attrs must be key/value pairs")
	item := NewItem(id, c.Registry())
	item.SetLocation("doc.md", 1)
	for i := 0; i < len(attrs); i += 2 {
		require.NoError(t, item.AddAttribute(attrs[i], attrs[i+1], true))
	}
	require.NoError(t, c.AddItem(item))
	return c.Item(id)
}

func TestRelationRegistry(t *testing.T) {
	c := newTestCollection(t)

	reverse, ok := c.ReverseRelation("impacts")
	assert.True(t, ok)
	assert.Equal(t, "impacted_by", reverse)

	reverse, ok = c.ReverseRelation("impacted_by")
	assert.True(t, ok)
	assert.Equal(t, "impacts", reverse)

	_, ok = c.ReverseRelation("ext_jira")
	assert.False(t, ok)
	assert.True(t, c.IsExternal("ext_jira"))
	assert.False(t, c.IsExternal("impacts"))

	require.NoError(t, c.AddRelationPair("impacts", "impacted_by"), "same pair again is a no-op")
	assert.Error(t, c.AddRelationPair("impacts", "depends_on"))
	assert.Error(t, c.AddRelationPair("", "x"))

	assert.Equal(t, []string{"ext_jira", "impacted_by", "impacts", "validated_by", "validates"}, c.Relations())
	assert.Equal(t, []string{"impacted_by", "impacts", "validated_by", "validates"}, c.InternalRelations())
}

func TestDuplicateRejected(t *testing.T) {
	c := NewCollection(newTestRegistry(t))

	declare(t, c, "R1", "asil", "A")

	again := NewItem("R1", c.Registry())
	again.SetCaption("second")
	require.NoError(t, again.AddAttribute("asil", "D", true))
	err := c.AddItem(again)

	assert.True(t, errors.Is(err, errors.ErrDuplicate), "got %v", err)
	stored := c.Item("R1")
	assert.Equal(t, "A", stored.Attribute("asil"))
	assert.Empty(t, stored.Caption())
	assert.NotEmpty(t, errors.GetAllDetails(err))
}

func TestPlaceholderUpgradePreservesEdges(t *testing.T) {
	c := newTestCollection(t)

	require.NoError(t, c.AddRelation("R1", "impacts", "D1"))
	require.True(t, c.Item("D1").IsPlaceholder())
	require.True(t, c.Item("R1").IsPlaceholder())

	declare(t, c, "D1")

	d1 := c.Item("D1")
	assert.False(t, d1.IsPlaceholder())
	assert.Equal(t, []string{"R1"}, d1.Targets("impacted_by"))

	ids, err := c.Items(".*", ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"D1"}, ids, "R1 is still a placeholder")
}

func TestFilterAndSortByAttribute(t *testing.T) {
	c := NewCollection(newTestRegistry(t))
	declare(t, c, "z2", "prio", "0x003A")
	declare(t, c, "z11", "prio", "0x0029")

	ids, err := c.Items("", ItemFilter{SortAttributes: []string{"prio"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"z11", "z2"}, ids)

	ids, err = c.Items("", ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"z2", "z11"}, ids)

	ids, err = c.Items("", ItemFilter{Reverse: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"z11", "z2"}, ids)
}

func TestItemsFilter(t *testing.T) {
	c := NewCollection(newTestRegistry(t))
	declare(t, c, "r1", "asil", "A", "status", "open")
	declare(t, c, "r2", "asil", "B")
	declare(t, c, "r10", "asil", "A")
	declare(t, c, "d1", "asil", "A")

	tests := []struct {
		name   string
		regex  string
		filter ItemFilter
		want   []string
	}{
		{"all", "", ItemFilter{}, []string{"d1", "r1", "r2", "r10"}},
		{"full match only", "r1", ItemFilter{}, []string{"r1"}},
		{"prefix", `r\d+`, ItemFilter{}, []string{"r1", "r2", "r10"}},
		{"attribute", `r\d+`, ItemFilter{Attributes: map[string]string{"asil": "A"}}, []string{"r1", "r10"}},
		{"two attributes", "", ItemFilter{Attributes: map[string]string{"ASIL": "A", "status": "open"}}, []string{"r1"}},
		{"unset attribute", "", ItemFilter{Attributes: map[string]string{"status": ".*"}}, []string{"r1"}},
		{"no match", "x.*", ItemFilter{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := c.Items(tt.regex, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := c.Items("[", ItemFilter{})
	assert.Error(t, err)
}

func TestAddRelationErrors(t *testing.T) {
	c := newTestCollection(t)
	declare(t, c, "R1")

	err := c.AddRelation("R1", "fulfils", "D1")
	assert.True(t, errors.Is(err, errors.ErrUnknownRelation))
	assert.NotEmpty(t, errors.GetAllHints(err))
	assert.False(t, c.HasItem("D1"), "rejected edge creates no placeholder")

	err = c.AddRelation("R1", "impacts", "R1")
	assert.True(t, errors.Is(err, errors.ErrCircular))

	require.NoError(t, c.AddRelation("R1", "impacts", "D1"))
	err = c.AddRelation("R1", "impacts", "D1")
	assert.True(t, errors.Is(err, errors.ErrDuplicateRelation))
	assert.Equal(t, []string{"D1"}, c.Item("R1").Targets("impacts"))
	assert.Equal(t, []string{"R1"}, c.Item("D1").Targets("impacted_by"))
}

func TestExplicitAfterImplicit(t *testing.T) {
	c := newTestCollection(t)
	declare(t, c, "R1")
	declare(t, c, "D1")

	require.NoError(t, c.AddRelation("R1", "impacts", "D1"))
	require.NoError(t, c.AddRelation("D1", "impacted_by", "R1"), "explicit declaration of the reverse promotes it")

	d1 := c.Item("D1")
	assert.Equal(t, []string{"R1"}, d1.IterTargets("impacted_by", true, false, true))
	assert.Empty(t, d1.IterTargets("impacted_by", false, true, true))
	assert.NoError(t, c.SelfTest(""))
}

func TestRemoveRelation(t *testing.T) {
	c := newTestCollection(t)
	declare(t, c, "R1")
	declare(t, c, "D1")
	require.NoError(t, c.AddRelation("R1", "impacts", "D1"))

	require.NoError(t, c.RemoveRelation("R1", "impacts", "D1"))
	assert.Empty(t, c.Item("R1").Targets("impacts"))
	assert.Empty(t, c.Item("D1").Targets("impacted_by"))

	err := c.RemoveRelation("R1", "impacts", "D1")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestExternalRelations(t *testing.T) {
	c := newTestCollection(t)
	declare(t, c, "R1")
	declare(t, c, "R2")
	declare(t, c, "D1")

	require.NoError(t, c.AddRelation("R1", "ext_jira", "PRJ-10"))
	require.NoError(t, c.AddRelation("R2", "ext_jira", "PRJ-10"))
	require.NoError(t, c.AddRelation("R2", "ext_jira", "PRJ-2"))
	require.NoError(t, c.AddRelation("D1", "ext_jira", "PRJ-2"))
	assert.False(t, c.HasItem("PRJ-10"), "external targets are not placeholders")

	targets, err := c.ExternalTargets(`R\d`, "ext_jira")
	require.NoError(t, err)
	assert.Equal(t, []ExternalTarget{
		{TargetID: "PRJ-2", SourceIDs: []string{"R2"}},
		{TargetID: "PRJ-10", SourceIDs: []string{"R1", "R2"}},
	}, targets)

	_, err = c.ExternalTargets("", "impacts")
	assert.True(t, errors.Is(err, errors.ErrInvalidQuery))

	assert.NoError(t, c.SelfTest(""))
}

func TestAreRelated(t *testing.T) {
	c := newTestCollection(t)
	declare(t, c, "R1")
	declare(t, c, "D1")
	require.NoError(t, c.AddRelation("R1", "impacts", "D1"))
	require.NoError(t, c.AddRelation("R1", "validates", "T1"))

	assert.True(t, c.AreRelated("R1", []string{"impacts"}, "D1"))
	assert.True(t, c.AreRelated("D1", []string{"impacted_by"}, "R1"), "implicit edges count")
	assert.True(t, c.AreRelated("D1", nil, "R1"))
	assert.False(t, c.AreRelated("D1", []string{"impacts"}, "R1"))
	assert.False(t, c.AreRelated("R1", nil, "T1"), "placeholders are never related")
	assert.False(t, c.AreRelated("X", nil, "R1"))
}

func TestAttributeSortingRule(t *testing.T) {
	c := NewCollection(newTestRegistry(t))
	r1 := declare(t, c, "R1", "asil", "A", "status", "open", "prio", "0x0001")
	require.True(t, r1.SetAttributeOrder([]string{"prio"}))
	declare(t, c, "R2", "asil", "B", "status", "done")

	ignored, err := c.AddAttributeSortingRule(`R\d+`, []string{"status", "asil"})
	require.NoError(t, err)
	assert.Equal(t, []string{"R1"}, ignored)
	assert.Equal(t, []string{"status", "asil"}, c.Item("R2").Attributes())
	assert.Equal(t, []string{"prio", "asil", "status"}, c.Item("R1").Attributes())

	r3 := declare(t, c, "R3", "asil", "C", "status", "open")
	assert.Equal(t, []string{"status", "asil"}, r3.AttributeOrder(), "rules apply to later items")

	_, err = c.AddAttributeSortingRule("[", nil)
	assert.Error(t, err)
}

func TestItemCallback(t *testing.T) {
	var seen []string
	var reentrant error
	cb := func(itemID string, c *Collection) error {
		seen = append(seen, itemID)
		assert.NotNil(t, c.Item(itemID))
		reentrant = c.AddRelation(itemID, "impacts", "X")
		return nil
	}
	c := newTestCollection(t, WithItemCallback(cb))

	require.NoError(t, c.AddRelation("R1", "impacts", "D1"))
	assert.Empty(t, seen, "placeholders do not trigger the callback")

	declare(t, c, "D1")
	declare(t, c, "R2")
	assert.Equal(t, []string{"D1", "R2"}, seen)
	assert.True(t, errors.Is(reentrant, errors.ErrReentrancy))
	assert.False(t, c.HasItem("X"))

	failing := NewCollection(newTestRegistry(t), WithItemCallback(func(string, *Collection) error {
		return errors.New("boom")
	}))
	item := NewItem("R1", failing.Registry())
	err := failing.AddItem(item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, errors.Is(err, errors.ErrItemCallback))
	assert.True(t, failing.HasItem("R1"), "a failing callback does not undo the add")
}

// randomCollection drives a collection through a seeded sequence of legal
// operations and returns it together with the number of declared items.
func randomCollection(t *testing.T, seed int64) (*Collection, int) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	c := newTestCollection(t)
	relations := []string{"impacts", "impacted_by", "validates", "validated_by"}
	asil := []string{"A", "B", "C", "D"}

	declared := 0
	for step := 0; step < 200; step++ {
		id := fmt.Sprintf("I%d", rng.Intn(30))
		switch rng.Intn(3) {
		case 0:
			item := NewItem(id, c.Registry())
			item.SetLocation("random.md", step)
			require.NoError(t, item.AddAttribute("asil", asil[rng.Intn(len(asil))], true))
			err := c.AddItem(item)
			if err == nil {
				declared++
			} else {
				require.True(t, errors.Is(err, errors.ErrDuplicate))
			}
		default:
			target := fmt.Sprintf("I%d", rng.Intn(30))
			err := c.AddRelation(id, relations[rng.Intn(len(relations))], target)
			if err != nil {
				require.True(t, errors.IsAny(err, errors.ErrCircular, errors.ErrDuplicateRelation), "unexpected %v", err)
			}
		}
	}
	return c, declared
}

func TestCollectionInvariants(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			c, declared := randomCollection(t, seed)

			// every explicit edge has its implicit reverse
			for _, id := range c.ItemIDs() {
				item := c.Item(id)
				for _, relation := range item.Relations() {
					reverse, ok := c.ReverseRelation(relation)
					require.True(t, ok)
					for _, target := range item.IterTargets(relation, true, false, true) {
						assert.True(t, c.Item(target).IsRelated([]string{reverse}, id),
							"%s %s %s lacks reverse", id, relation, target)
					}
				}
			}

			relations := c.Relations()
			for i := 1; i < len(relations); i++ {
				assert.True(t, NaturalLess(relations[i-1], relations[i]), "relations sorted and unique")
			}

			all, err := c.Items(".*", ItemFilter{})
			require.NoError(t, err)
			assert.Len(t, all, declared)
			for _, id := range all {
				assert.False(t, c.Item(id).IsPlaceholder())
			}

			filtered, err := c.Items(".*", ItemFilter{Attributes: map[string]string{"asil": "[AB]"}})
			require.NoError(t, err)
			assert.Subset(t, all, filtered)

			for _, a := range c.ItemIDs() {
				for _, b := range c.ItemIDs() {
					assert.Equal(t, c.AreRelated(a, nil, b), c.AreRelated(a, relations, b))
				}
			}

			var first, second bytes.Buffer
			require.NoError(t, c.Export(&first))
			require.NoError(t, c.Export(&second))
			assert.Equal(t, first.Bytes(), second.Bytes())
		})
	}
}

func TestDuplicateEdgeLeavesEdgesUnchanged(t *testing.T) {
	c, _ := randomCollection(t, 42)
	for _, id := range c.ItemIDs() {
		item := c.Item(id)
		for _, relation := range item.Relations() {
			explicit := item.IterTargets(relation, true, false, true)
			if len(explicit) == 0 {
				continue
			}
			before := item.Targets(relation)
			err := c.AddRelation(id, relation, explicit[0])
			assert.True(t, errors.Is(err, errors.ErrDuplicateRelation))
			assert.Equal(t, before, item.Targets(relation))
		}
	}
}

func TestPromotionKeepsUnionSize(t *testing.T) {
	c, _ := randomCollection(t, 7)
	for _, id := range c.ItemIDs() {
		item := c.Item(id)
		for _, relation := range item.Relations() {
			for _, target := range item.IterTargets(relation, false, true, true) {
				before := len(item.Targets(relation))
				require.NoError(t, c.AddRelation(id, relation, target))
				assert.Equal(t, before, len(item.Targets(relation)))
			}
		}
	}
}
