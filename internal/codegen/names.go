package codegen

import (
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/matthewbaird/zkgen/internal/naming"
	"github.com/matthewbaird/zkgen/internal/schema"
)

// trailerMethods are declared on every item type by the item trailer.
var trailerMethods = []string{
	"ZenkitURL", "DisplayString", "CreatedByID", "CreatedByName",
	"UpdatedByID", "UpdatedByName", "CreatedAt", "UpdatedAt",
	"DeprecatedAt", "DeprecatedByID", "SortOrder", "ID", "UUID",
	"ShortID", "Entry",
}

// rootIdentifiers are declared once per package by the workspace root file.
var rootIdentifiers = []string{
	"Workspace", "New", "BuilderError", "labelNotFound", "pageSize",
	"loadEntries", "labelEntry", "lookupLabel",
}

// labelKey identifies one per-label fragment of one label.
func labelKey(template, symbol string) string {
	return template + " " + symbol
}

// nameClaims maps every name the package declares to its owner. Keys are
// "identifier X" for package-level names and "method T.X" for methods.
type nameClaims map[string]string

func newNameClaims() nameClaims {
	c := make(nameClaims)
	for _, n := range rootIdentifiers {
		c["identifier "+n] = "the workspace root file"
	}
	return c
}

// conflict returns the first of keys owned by someone else.
func (c nameClaims) conflict(keys []string) (key, owner string, ok bool) {
	for _, k := range keys {
		if prev, taken := c[k]; taken {
			return k, prev, true
		}
	}
	return "", "", false
}

func (c nameClaims) claim(keys []string, owner string) {
	for _, k := range keys {
		c[k] = owner
	}
}

// receiver names the type a mode's methods are declared on.
func receiver(item string, mode Mode) string {
	switch mode {
	case ModeCreate:
		return "New" + item + "Builder"
	case ModeUpdate:
		return "Update" + item + "Builder"
	default:
		return item
	}
}

// listNames are the names declared by a list's header, trailer and
// builders, independent of its fields.
func listNames(symbol, item string) []string {
	var keys []string
	for _, n := range []string{
		symbol + "ListID", symbol + "ListShortID", symbol + "ListUUID", symbol + "ListName",
		symbol + "List", "New" + symbol + "List",
		item, receiver(item, ModeCreate), receiver(item, ModeUpdate),
	} {
		keys = append(keys, "identifier "+n)
	}
	for _, m := range trailerMethods {
		keys = append(keys, "method "+item+"."+m)
	}
	for _, mode := range []Mode{ModeCreate, ModeUpdate} {
		keys = append(keys, "method "+receiver(item, mode)+".Execute")
	}
	return keys
}

// fieldNames returns the names a field declares across all modes, sorted,
// and separately the method names of each per-label accessor fragment keyed
// by labelKey. It mirrors the declarations in the fragment templates.
func fieldNames(rf resolvedField, item string, table *LabelTable) ([]string, map[string][]string, error) {
	s := rf.symbol
	one, err := naming.Singularize(s)
	if err != nil {
		return nil, nil, err
	}
	many, err := naming.Pluralize(one)
	if err != nil {
		return nil, nil, err
	}
	lower, err := naming.LowerCamel(item)
	if err != nil {
		return nil, nil, err
	}

	own := make(map[string]bool)
	perLabel := make(map[string]map[string]bool)
	ident := func(n string) { own["identifier "+n] = true }
	for _, mode := range []Mode{ModeItem, ModeCreate, ModeUpdate} {
		plan, err := PlanField(rf.field, mode)
		if err != nil {
			return nil, nil, err
		}
		recv := receiver(item, mode)
		method := func(n string) { own["method "+recv+"."+n] = true }
		for _, frag := range plan.Fragments {
			switch frag.Template {
			case "field_const":
				ident(rf.prefix + "FieldID")
				ident(rf.prefix + "FieldUUID")
				ident(rf.prefix + "FieldName")
			case "get_text", "get_url", "get_date", "get_int", "get_float", "get_files", "get_formula":
				method(s)
			case "get_text_format":
				method(s + "Format")
			case "get_checkbox":
				method("Is" + s)
			case "get_person_single":
				method(s + "Name")
				method(s + "ID")
			case "get_persons_multiple":
				method(one + "Names")
				method(one + "IDs")
			case "get_category_single":
				method(s)
				method(s + "ID")
			case "get_categories_multiple":
				method(one + "IDs")
				method(many)
			case "get_reference_single":
				method(s + "UUID")
			case "get_references_multiple":
				method(one + "UUIDs")
			case "get_subentries":
				method("Is" + s + "Connected")
				method(one + "UUIDs")
				method(one + "Parents")
			case "get_formula_error":
				method(s + "Error")
			case "category_label_table":
				ident(lower + s + "Labels")
				ident(item + "LabelIDFor" + s)
			case "set_text", "set_url", "set_date", "set_int", "set_float", "set_checkbox",
				"set_value_single", "set_values", "set_category_label":
				method("Set" + s)
			case "set_text_with_format":
				method("Set" + s + "WithFormat")
			case "set_category_id":
				method("Set" + s + "ID")
			case "set_category_labels":
				method("Set" + s + "Labels")
			case "add_values":
				method("Add" + s)
			case "remove_values":
				method("Remove" + s)
			case "unset_values":
				method("Unset" + s)
			case "category_label_const", "category_label_getter", "category_label_setter":
				if table == nil {
					return nil, nil, errors.AssertionFailedf("field %q: %s without a label table", rf.field.Name, frag.Template)
				}
				for _, e := range table.Entries {
					switch frag.Template {
					case "category_label_const":
						ident(rf.prefix + e.Symbol + "LabelID")
					case "category_label_getter":
						addName(perLabel, labelKey(frag.Template, e.Symbol), "method "+recv+".Is"+s+e.Symbol)
					default:
						addName(perLabel, labelKey(frag.Template, e.Symbol), "method "+recv+".Set"+s+e.Symbol)
					}
				}
			default:
				return nil, nil, errors.AssertionFailedf("field %q: no declared names known for %s", rf.field.Name, frag.Template)
			}
		}
	}

	labels := make(map[string][]string, len(perLabel))
	for k, set := range perLabel {
		labels[k] = sortedKeys(set)
	}
	return sortedKeys(own), labels, nil
}

func addName(m map[string]map[string]bool, group, key string) {
	if m[group] == nil {
		m[group] = make(map[string]bool)
	}
	m[group][key] = true
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// claimField claims the names of rf. It reports false, leaving nothing
// claimed, when a field-level name is taken. A label getter or setter whose
// name is taken is recorded in rf.skipLabels and left out on its own; the
// label constant and table row are kept.
func (g *Generator) claimField(list *schema.List, rf *resolvedField, item string) (bool, error) {
	var table *LabelTable
	if rf.field.Category == schema.CategoryCategories {
		table, _ = BuildLabelTable(rf.field.Labels())
	}
	own, labels, err := fieldNames(*rf, item, table)
	if err != nil {
		return false, err
	}
	if key, prev, ok := g.names.conflict(own); ok {
		g.log.Warnw("skipping field with conflicting name", "list", list.Name, "field", rf.field.Name, "name", key, "conflicts_with", prev)
		return false, nil
	}
	owner := "field " + strconv.Quote(rf.field.Name) + " of list " + strconv.Quote(list.Name)
	g.names.claim(own, owner)
	if table == nil {
		return true, nil
	}
	for _, e := range table.Entries {
		for _, tmpl := range []string{"category_label_getter", "category_label_setter"} {
			k := labelKey(tmpl, e.Symbol)
			keys, ok := labels[k]
			if !ok {
				continue
			}
			if key, prev, taken := g.names.conflict(keys); taken {
				g.log.Warnw("skipping label accessors with conflicting name", "list", list.Name, "field", rf.field.Name, "label", e.Name, "name", key, "conflicts_with", prev)
				if rf.skipLabels == nil {
					rf.skipLabels = make(map[string]bool)
				}
				rf.skipLabels[k] = true
				continue
			}
			g.names.claim(keys, "label "+strconv.Quote(e.Name)+" of "+owner)
		}
	}
	return true, nil
}
