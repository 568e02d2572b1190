package codegen

import (
	"github.com/cockroachdb/errors"

	"github.com/matthewbaird/zkgen/internal/schema"
)

// ErrUnhandledCategory is returned by PlanField for a category value outside
// the known set.
var ErrUnhandledCategory = errors.New("unhandled field category")

// Mode selects which side of a field is emitted.
type Mode int

const (
	// ModeItem emits accessors on the item type.
	ModeItem Mode = iota
	// ModeCreate emits setters on the create builder.
	ModeCreate
	// ModeUpdate emits setters on the update builder.
	ModeUpdate
)

func (m Mode) String() string {
	switch m {
	case ModeItem:
		return "item"
	case ModeCreate:
		return "create"
	case ModeUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Fragment is one template rendered for a field. PerLabel fragments are
// rendered once for every entry of the field's label table.
type Fragment struct {
	Template string
	PerLabel bool
}

// FieldPlan is the code shape chosen for a field in one mode.
type FieldPlan struct {
	Fragments []Fragment
	// Collection fields store their values as an array under
	// "<uuid>_<ValueSuffix>" holding ValueType elements.
	ValueSuffix string
	ValueType   string
	// Unsupported is set for categories that are recognized but not
	// generated; the caller reports them.
	Unsupported bool
}

// Templates returns the fragment template names in order.
func (p FieldPlan) Templates() []string {
	names := make([]string, 0, len(p.Fragments))
	for _, f := range p.Fragments {
		names = append(names, f.Template)
	}
	return names
}

func frags(names ...string) []Fragment {
	out := make([]Fragment, 0, len(names))
	for _, n := range names {
		out = append(out, Fragment{Template: n})
	}
	return out
}

// PlanField maps a field's category, cardinality and the mode to the
// fragments to render. It is a pure function of those three inputs.
func PlanField(f *schema.Field, mode Mode) (FieldPlan, error) {
	var plan FieldPlan
	item := mode == ModeItem
	update := mode == ModeUpdate

	switch f.Category {
	case schema.CategoryText:
		if item {
			plan.Fragments = frags("get_text", "get_text_format")
		} else {
			plan.Fragments = frags("set_text", "set_text_with_format")
		}

	case schema.CategoryURL:
		if item {
			plan.Fragments = frags("get_url")
		} else {
			plan.Fragments = frags("set_url")
		}

	case schema.CategoryDate:
		if item {
			plan.Fragments = frags("get_date")
		} else {
			plan.Fragments = frags("set_date")
		}

	case schema.CategoryCheckbox:
		if item {
			plan.Fragments = frags("get_checkbox")
		} else {
			plan.Fragments = frags("set_checkbox")
		}

	case schema.CategoryNumber:
		integer := f.NumericType() == schema.NumericInteger
		switch {
		case item && integer:
			plan.Fragments = frags("get_int")
		case item:
			plan.Fragments = frags("get_float")
		case integer:
			plan.Fragments = frags("set_int")
		default:
			plan.Fragments = frags("set_float")
		}

	case schema.CategoryPersons:
		plan.ValueSuffix, plan.ValueType = "persons", "zenkit.ID"
		switch {
		case item && f.Multiple:
			plan.Fragments = frags("get_persons_multiple")
		case item:
			plan.Fragments = frags("get_person_single")
		default:
			plan.Fragments = collectionSetters(f.Multiple, update)
		}

	case schema.CategoryReferences:
		plan.ValueSuffix, plan.ValueType = "references", "string"
		switch {
		case item && f.Multiple:
			plan.Fragments = frags("get_references_multiple")
		case item:
			plan.Fragments = frags("get_reference_single")
		default:
			plan.Fragments = collectionSetters(f.Multiple, update)
		}

	case schema.CategorySubEntries:
		plan.ValueSuffix, plan.ValueType = "references", "string"
		if item {
			plan.Fragments = frags("get_subentries")
		} else {
			plan.Fragments = collectionSetters(true, update)
		}

	case schema.CategoryCategories:
		plan.ValueSuffix, plan.ValueType = "categories", "zenkit.ID"
		switch {
		case item:
			plan.Fragments = []Fragment{
				{Template: "category_label_const", PerLabel: true},
				{Template: "category_label_getter", PerLabel: true},
			}
			plan.Fragments = append(plan.Fragments, frags("category_label_table")...)
			if f.Multiple {
				plan.Fragments = append(plan.Fragments, frags("get_categories_multiple")...)
			} else {
				plan.Fragments = append(plan.Fragments, frags("get_category_single")...)
			}
		case f.Multiple:
			plan.Fragments = frags("set_values", "set_category_labels")
			if update {
				plan.Fragments = append(plan.Fragments, frags("add_values", "remove_values", "unset_values")...)
			}
		default:
			plan.Fragments = []Fragment{{Template: "category_label_setter", PerLabel: true}}
			plan.Fragments = append(plan.Fragments, frags("set_category_id", "set_category_label")...)
			if update {
				plan.Fragments = append(plan.Fragments, frags("unset_values")...)
			}
		}

	case schema.CategoryFiles:
		if item {
			plan.Fragments = frags("get_files")
		}

	case schema.CategoryFormula:
		if item {
			plan.Fragments = frags("get_formula", "get_formula_error")
		}

	case schema.CategoryCreatedBy, schema.CategoryUpdatedBy, schema.CategoryDeprecatedBy,
		schema.CategoryDateCreated, schema.CategoryDateUpdated, schema.CategoryDateDeprecated:
		// Covered by the item trailer.

	case schema.CategoryHierarchy, schema.CategoryDependencies:
		plan.Unsupported = true

	default:
		return FieldPlan{}, errors.Wrapf(ErrUnhandledCategory, "field %q: %s (%d)", f.Name, f.Category, int(f.Category))
	}

	if item && len(plan.Fragments) > 0 {
		plan.Fragments = append(frags("field_const"), plan.Fragments...)
	}
	return plan, nil
}

// collectionSetters is the setter set shared by persons, references and
// sub-entries. Update builders add Add/Remove for multiple values and Unset
// for any cardinality.
func collectionSetters(multiple, update bool) []Fragment {
	var out []Fragment
	if multiple {
		out = frags("set_values")
	} else {
		out = frags("set_value_single")
	}
	if update {
		if multiple {
			out = append(out, frags("add_values", "remove_values")...)
		}
		out = append(out, frags("unset_values")...)
	}
	return out
}

// emitField renders every fragment of one field in the given mode. The
// field-scoped keys are released before it returns.
func (g *Generator) emitField(list *schema.List, rf resolvedField, mode Mode) error {
	f := rf.field
	plan, err := PlanField(f, mode)
	if err != nil {
		return err
	}
	if len(plan.Fragments) == 0 {
		return nil
	}

	scope := g.ctx.Enter()
	defer scope.Exit()
	scope.Set(KeyField, f.Name).
		Set(KeyFieldID, f.ID).
		Set(KeyFieldUUID, f.UUID).
		Set(KeyFieldDesc, f.Description).
		Set(KeyFieldSymbol, rf.symbol).
		Set(KeyFieldPrefix, rf.prefix).
		Set(KeyFieldMultiple, f.Multiple).
		Set(KeyRefList, f.TargetList()).
		Set(KeyValueSuffix, plan.ValueSuffix).
		Set(KeyValueType, plan.ValueType)

	var table *LabelTable
	if f.Category == schema.CategoryCategories {
		var dropped []DroppedLabel
		table, dropped = BuildLabelTable(f.Labels())
		if mode == ModeItem {
			for _, d := range dropped {
				g.log.Warnw("dropping label", "list", list.Name, "field", f.Name, "label", d.Label.Name, "reason", d.Reason)
			}
		}
		scope.Set(KeyLabels, table.Entries)
	}

	for _, frag := range plan.Fragments {
		if !frag.PerLabel {
			if err := g.renderer.Render(frag.Template, g.ctx); err != nil {
				return errors.Wrapf(err, "field %q", f.Name)
			}
			continue
		}
		for _, entry := range table.Entries {
			if rf.skipLabels[labelKey(frag.Template, entry.Symbol)] {
				continue
			}
			if err := g.renderLabel(frag.Template, entry); err != nil {
				return errors.Wrapf(err, "field %q label %q", f.Name, entry.Name)
			}
		}
	}
	return nil
}

func (g *Generator) renderLabel(name string, entry LabelEntry) error {
	scope := g.ctx.Enter()
	defer scope.Exit()
	scope.Set(KeyLabel, entry.Name).
		Set(KeyLabelID, entry.ID).
		Set(KeyLabelSymbol, entry.Symbol)
	return g.renderer.Render(name, g.ctx)
}
