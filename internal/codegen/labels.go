package codegen

import (
	"sort"

	"github.com/matthewbaird/zkgen/internal/naming"
	"github.com/matthewbaird/zkgen/internal/schema"
	"github.com/matthewbaird/zkgen/zenkit"
)

// LabelEntry is one row of a label table.
type LabelEntry struct {
	Name   string
	ID     zenkit.ID
	Symbol string
}

// DroppedLabel is a label left out of a table, with the reason.
type DroppedLabel struct {
	Label  schema.Label
	Reason string
}

// LabelTable is the name-sorted label set of one Categories field. The
// per-label constants and accessors are emitted from Entries, so they always
// agree with the table.
type LabelTable struct {
	Entries []LabelEntry
}

// BuildLabelTable sorts labels ascending by name. When two labels share a
// name, or normalize to the same Go symbol, the later one wins and the
// earlier one is returned as dropped. Labels without a usable name are
// dropped too.
func BuildLabelTable(labels []schema.Label) (*LabelTable, []DroppedLabel) {
	var (
		entries []LabelEntry
		dropped []DroppedLabel
	)
	for _, l := range labels {
		sym, err := naming.TypeCase(l.Name)
		if err != nil {
			dropped = append(dropped, DroppedLabel{Label: l, Reason: "name has no letters or digits"})
			continue
		}
		for i := 0; i < len(entries); i++ {
			prev := entries[i]
			if prev.Name != l.Name && prev.Symbol != sym {
				continue
			}
			reason := "duplicate name"
			if prev.Name != l.Name {
				reason = "duplicate symbol " + sym
			}
			dropped = append(dropped, DroppedLabel{
				Label:  schema.Label{ID: prev.ID, Name: prev.Name},
				Reason: reason,
			})
			entries = append(entries[:i], entries[i+1:]...)
			i--
		}
		entries = append(entries, LabelEntry{Name: l.Name, ID: l.ID, Symbol: sym})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return &LabelTable{Entries: entries}, dropped
}

// Lookup finds a label id by exact name with a binary search, the same
// algorithm generated code uses.
func (t *LabelTable) Lookup(name string) (zenkit.ID, bool) {
	i := sort.Search(len(t.Entries), func(i int) bool {
		return t.Entries[i].Name >= name
	})
	if i < len(t.Entries) && t.Entries[i].Name == name {
		return t.Entries[i].ID, true
	}
	return 0, false
}

// Sorted reports whether the table is in ascending name order.
func (t *LabelTable) Sorted() bool {
	return sort.SliceIsSorted(t.Entries, func(i, j int) bool {
		return t.Entries[i].Name < t.Entries[j].Name
	})
}
