// Package schema is the generator's read-only view of a Zenkit workspace:
// lists, their fields and the category of each field.
package schema

import (
	"time"

	"github.com/matthewbaird/zkgen/zenkit"
)

// Category classifies a field and decides which code is generated for it.
type Category int

const (
	CategoryText Category = iota
	CategoryNumber
	CategoryURL
	CategoryDate
	CategoryCheckbox
	CategoryCategories
	CategoryFormula
	CategoryPersons
	CategoryFiles
	CategoryReferences
	CategorySubEntries
	CategoryCreatedBy
	CategoryUpdatedBy
	CategoryDeprecatedBy
	CategoryDateCreated
	CategoryDateUpdated
	CategoryDateDeprecated
	CategoryHierarchy
	CategoryDependencies
)

// AllCategories lists every category in declaration order.
func AllCategories() []Category {
	out := make([]Category, 0, int(CategoryDependencies)+1)
	for c := CategoryText; c <= CategoryDependencies; c++ {
		out = append(out, c)
	}
	return out
}

// String returns the Zenkit-visible category name.
func (c Category) String() string {
	switch c {
	case CategoryText:
		return "Text"
	case CategoryNumber:
		return "Number"
	case CategoryURL:
		return "URL"
	case CategoryDate:
		return "Date"
	case CategoryCheckbox:
		return "Checkbox"
	case CategoryCategories:
		return "Categories"
	case CategoryFormula:
		return "Formula"
	case CategoryPersons:
		return "Persons"
	case CategoryFiles:
		return "Files"
	case CategoryReferences:
		return "References"
	case CategorySubEntries:
		return "SubEntries"
	case CategoryCreatedBy:
		return "CreatedBy"
	case CategoryUpdatedBy:
		return "UpdatedBy"
	case CategoryDeprecatedBy:
		return "DeprecatedBy"
	case CategoryDateCreated:
		return "DateCreated"
	case CategoryDateUpdated:
		return "DateUpdated"
	case CategoryDateDeprecated:
		return "DateDeprecated"
	case CategoryHierarchy:
		return "Hierarchy"
	case CategoryDependencies:
		return "Dependencies"
	default:
		return "unknown"
	}
}

// Metadata reports whether the category is one of the six created/updated/
// deprecated by-user and by-date categories covered by item boilerplate.
func (c Category) Metadata() bool {
	switch c {
	case CategoryCreatedBy, CategoryUpdatedBy, CategoryDeprecatedBy,
		CategoryDateCreated, CategoryDateUpdated, CategoryDateDeprecated:
		return true
	default:
		return false
	}
}

// NumericType is the subtype of a Number field.
type NumericType int

const (
	NumericDecimal NumericType = iota
	NumericInteger
)

// Payload is the category-specific part of a field. Only the payload types
// in this package implement it.
type Payload interface {
	payload()
}

// NumberPayload is carried by Number fields.
type NumberPayload struct {
	Type NumericType
}

// CategoriesPayload is carried by Categories fields.
type CategoriesPayload struct {
	Labels []Label
}

// ReferencesPayload is carried by References fields. TargetList is empty
// when the target is unknown.
type ReferencesPayload struct {
	TargetList string
}

func (NumberPayload) payload()     {}
func (CategoriesPayload) payload() {}
func (ReferencesPayload) payload() {}

// Label is a predefined option of a Categories field.
type Label struct {
	ID   zenkit.ID
	Name string
}

// Field is one column of a list.
type Field struct {
	ID           zenkit.ID
	UUID         string
	Name         string
	Description  string
	Category     Category
	Multiple     bool
	DeprecatedAt *time.Time
	Payload      Payload
}

// Deprecated reports whether the field must be left out of generated code.
func (f *Field) Deprecated() bool {
	return f.DeprecatedAt != nil
}

// Labels returns the labels of a Categories field, nil otherwise.
func (f *Field) Labels() []Label {
	if p, ok := f.Payload.(CategoriesPayload); ok {
		return p.Labels
	}
	return nil
}

// NumericType returns the subtype of a Number field, NumericDecimal otherwise.
func (f *Field) NumericType() NumericType {
	if p, ok := f.Payload.(NumberPayload); ok {
		return p.Type
	}
	return NumericDecimal
}

// TargetList returns the target list name of a References field.
func (f *Field) TargetList() string {
	if p, ok := f.Payload.(ReferencesPayload); ok {
		return p.TargetList
	}
	return ""
}

// List is a Zenkit list with its fields in schema order.
type List struct {
	ID             zenkit.ID
	ShortID        string
	UUID           string
	Name           string
	Description    string
	ItemName       string
	ItemNamePlural string
	Fields         []Field
}

// Workspace is a Zenkit workspace. Lists carry no fields until fetched with
// Provider.ListSchema.
type Workspace struct {
	ID          zenkit.ID
	UUID        string
	Name        string
	Description string
	Lists       []List
}
