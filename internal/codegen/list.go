package codegen

import (
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/matthewbaird/zkgen/internal/naming"
	"github.com/matthewbaird/zkgen/internal/schema"
)

// reservedSymbols are item accessors generated for every list. A field that
// normalizes to one of them gets a "Field" suffix.
var reservedSymbols = map[string]bool{
	"ZenkitURL": true, "DisplayString": true, "CreatedBy": true,
	"UpdatedBy": true, "DeprecatedBy": true, "CreatedAt": true,
	"UpdatedAt": true, "DeprecatedAt": true, "SortOrder": true,
	"ID": true, "UUID": true, "ShortID": true, "Entry": true,
	"CreatedByID": true, "CreatedByName": true, "UpdatedByID": true,
	"UpdatedByName": true, "DeprecatedByID": true, "Execute": true,
}

type resolvedField struct {
	field  *schema.Field
	symbol string
	// prefix is item type plus symbol, the stem of every generated
	// constant for the field.
	prefix string
	// skipLabels holds the labelKey of each per-label accessor left out
	// because its name is taken.
	skipLabels map[string]bool
}

// ItemNames returns the item type name and its plural for a list, honoring
// the list's item name overrides.
func ItemNames(list *schema.List) (item, plural string, err error) {
	base := list.ItemName
	if base == "" {
		if base, err = naming.Singularize(list.Name); err != nil {
			return "", "", err
		}
	}
	if item, err = naming.TypeCase(base); err != nil {
		return "", "", err
	}
	if list.ItemNamePlural != "" {
		plural, err = naming.TypeCase(list.ItemNamePlural)
	} else {
		plural, err = naming.Pluralize(item)
	}
	if err != nil {
		return "", "", err
	}
	return item, plural, nil
}

// resolveFields picks the fields that produce code and assigns each a
// unique symbol. Deprecated and metadata fields are left out silently;
// unsupported categories, unusable names and fields that would declare a
// name already in use are reported and left out.
func (g *Generator) resolveFields(list *schema.List, item string) ([]resolvedField, error) {
	var out []resolvedField
	taken := make(map[string]string)
	for i := range list.Fields {
		f := &list.Fields[i]
		if f.Deprecated() {
			continue
		}
		plan, err := PlanField(f, ModeItem)
		if err != nil {
			return nil, err
		}
		if plan.Unsupported {
			g.log.Warnw("skipping unsupported field", "list", list.Name, "field", f.Name, "category", f.Category.String())
			continue
		}
		if len(plan.Fragments) == 0 {
			continue
		}
		sym, err := naming.TypeCase(f.Name)
		if err != nil {
			g.log.Warnw("skipping field", "list", list.Name, "field", f.Name, "error", err)
			continue
		}
		if reservedSymbols[sym] {
			sym += "Field"
		}
		if prev, ok := taken[sym]; ok {
			g.log.Warnw("skipping field with duplicate symbol", "list", list.Name, "field", f.Name, "symbol", sym, "conflicts_with", prev)
			continue
		}
		taken[sym] = f.Name
		rf := resolvedField{field: f, symbol: sym, prefix: item + sym}
		ok, err := g.claimField(list, &rf, item)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rf)
		}
	}
	return out, nil
}

// EmitList renders the complete source of one list into the output buffer:
// header, item accessors, item trailer, create builder and update builder.
// Only keys that were set before the call remain in the context afterwards.
// Names declared by the list are claimed for the rest of the run; a list
// whose own declarations are already taken is an ErrSymbolCollision.
func (g *Generator) EmitList(list *schema.List) error {
	item, plural, err := ItemNames(list)
	if err != nil {
		return errors.Wrapf(err, "list %q", list.Name)
	}
	symbol, err := naming.TypeCase(list.Name)
	if err != nil {
		return errors.Wrapf(err, "list %q", list.Name)
	}
	if g.names == nil {
		g.names = newNameClaims()
	}
	listKeys := listNames(symbol, item)
	if key, prev, ok := g.names.conflict(listKeys); ok {
		return errors.Wrapf(ErrSymbolCollision, "list %q: %s already used by %s", list.Name, key, prev)
	}
	g.names.claim(listKeys, "list "+strconv.Quote(list.Name))
	fields, err := g.resolveFields(list, item)
	if err != nil {
		return errors.Wrapf(err, "list %q", list.Name)
	}

	scope := g.ctx.Enter()
	defer scope.Exit()
	scope.Set(KeyList, list.Name).
		Set(KeyListID, list.ID).
		Set(KeyListShortID, list.ShortID).
		Set(KeyListUUID, list.UUID).
		Set(KeyListDesc, list.Description).
		Set(KeyListSymbol, symbol).
		Set(KeyItem, item).
		Set(KeyItemPlural, plural)

	if err := g.renderer.Render("list_header", g.ctx); err != nil {
		return errors.Wrapf(err, "list %q", list.Name)
	}
	for _, rf := range fields {
		if err := g.emitField(list, rf, ModeItem); err != nil {
			return errors.Wrapf(err, "list %q", list.Name)
		}
	}
	if err := g.renderer.Render("item_trailer", g.ctx); err != nil {
		return errors.Wrapf(err, "list %q", list.Name)
	}
	for _, mode := range []Mode{ModeCreate, ModeUpdate} {
		if err := g.emitBuilder(list, fields, item, mode); err != nil {
			return errors.Wrapf(err, "list %q", list.Name)
		}
	}
	return nil
}

func (g *Generator) emitBuilder(list *schema.List, fields []resolvedField, item string, mode Mode) error {
	name := "New" + item + "Builder"
	if mode == ModeUpdate {
		name = "Update" + item + "Builder"
	}
	scope := g.ctx.Enter()
	defer scope.Exit()
	scope.Set(KeyBuilder, name).
		Set(KeyIsUpdate, mode == ModeUpdate)

	if err := g.renderer.Render("builder_start", g.ctx); err != nil {
		return err
	}
	for _, rf := range fields {
		if err := g.emitField(list, rf, mode); err != nil {
			return errors.Wrapf(err, "%s builder", mode)
		}
	}
	return g.renderer.Render("builder_execute", g.ctx)
}
