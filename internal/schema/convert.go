package schema

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/matthewbaird/zkgen/zenkit"
)

var (
	// ErrUnknownCategory marks an element whose category id is not known.
	ErrUnknownCategory = errors.New("unknown element category")
	// ErrMalformed marks an element that cannot be used as a field.
	ErrMalformed = errors.New("malformed element")
)

var categoryByID = map[zenkit.ElementCategory]Category{
	zenkit.CategoryText:             CategoryText,
	zenkit.CategoryNumber:           CategoryNumber,
	zenkit.CategoryURL:              CategoryURL,
	zenkit.CategoryDate:             CategoryDate,
	zenkit.CategoryCheckbox:         CategoryCheckbox,
	zenkit.CategoryCategories:       CategoryCategories,
	zenkit.CategoryFormula:          CategoryFormula,
	zenkit.CategoryDateCreated:      CategoryDateCreated,
	zenkit.CategoryDateUpdated:      CategoryDateUpdated,
	zenkit.CategoryDateDeprecated:   CategoryDateDeprecated,
	zenkit.CategoryUserCreatedBy:    CategoryCreatedBy,
	zenkit.CategoryUserUpdatedBy:    CategoryUpdatedBy,
	zenkit.CategoryUserDeprecatedBy: CategoryDeprecatedBy,
	zenkit.CategoryPersons:          CategoryPersons,
	zenkit.CategoryFiles:            CategoryFiles,
	zenkit.CategoryReferences:       CategoryReferences,
	zenkit.CategoryHierarchy:        CategoryHierarchy,
	zenkit.CategorySubEntries:       CategorySubEntries,
	zenkit.CategoryDependencies:     CategoryDependencies,
}

// FieldFromElement converts a wire element into a Field. Elements with an
// unknown category, a missing name or a uuid that does not parse are
// rejected.
func FieldFromElement(e zenkit.Element) (Field, error) {
	cat, ok := categoryByID[e.Category]
	if !ok {
		return Field{}, errors.Wrapf(ErrUnknownCategory, "element %q has category %d", e.Name, int(e.Category))
	}
	if e.Name == "" {
		return Field{}, errors.Wrapf(ErrMalformed, "element %d has no name", e.ID)
	}
	if _, err := uuid.Parse(e.UUID); err != nil {
		return Field{}, errors.Wrapf(ErrMalformed, "element %q has uuid %q", e.Name, e.UUID)
	}

	f := Field{
		ID:           e.ID,
		UUID:         e.UUID,
		Name:         e.Name,
		Description:  e.Description,
		Category:     cat,
		Multiple:     e.Data.Multiple,
		DeprecatedAt: e.DeprecatedAt,
	}
	switch cat {
	case CategoryNumber:
		p := NumberPayload{Type: NumericDecimal}
		if e.Data.NumericType == zenkit.NumericInteger {
			p.Type = NumericInteger
		}
		f.Payload = p
	case CategoryCategories:
		labels := make([]Label, 0, len(e.Data.PredefinedCategories))
		for _, pc := range e.Data.PredefinedCategories {
			labels = append(labels, Label{ID: pc.ID, Name: pc.Name})
		}
		f.Payload = CategoriesPayload{Labels: labels}
	case CategoryReferences:
		p := ReferencesPayload{}
		if e.Data.ChildList != nil {
			p.TargetList = e.Data.ChildList.Name
		}
		f.Payload = p
	}
	return f, nil
}

// ListFromWire converts list metadata without fields.
func ListFromWire(l zenkit.List) List {
	return List{
		ID:             l.ID,
		ShortID:        l.ShortID,
		UUID:           l.UUID,
		Name:           l.Name,
		Description:    l.Description,
		ItemName:       l.ItemName,
		ItemNamePlural: l.ItemNamePlural,
	}
}

// WorkspaceFromWire converts a workspace and the metadata of its lists.
func WorkspaceFromWire(ws zenkit.Workspace) *Workspace {
	out := &Workspace{
		ID:          ws.ID,
		UUID:        ws.UUID,
		Name:        ws.Name,
		Description: ws.Description,
	}
	for _, l := range ws.Lists {
		out.Lists = append(out.Lists, ListFromWire(l))
	}
	return out
}
