package zenkit

import (
	"time"
)

// ID is a numeric Zenkit object id.
type ID uint64

// Workspace is a Zenkit workspace with its lists.
type Workspace struct {
	ID          ID     `json:"id"`
	ShortID     string `json:"shortId,omitempty"`
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Lists       []List `json:"lists"`
}

// List is the metadata of a Zenkit list (a collection).
type List struct {
	ID             ID     `json:"id"`
	ShortID        string `json:"shortId"`
	UUID           string `json:"uuid"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	ItemName       string `json:"itemName,omitempty"`
	ItemNamePlural string `json:"itemNamePlural,omitempty"`
	WorkspaceID    ID     `json:"workspaceId,omitempty"`
}

// ListInfo is a list together with its elements (fields).
type ListInfo struct {
	List     List      `json:"list"`
	Elements []Element `json:"elements"`
}

// ElementCategory is the Zenkit element category id.
type ElementCategory int

const (
	CategoryText             ElementCategory = 1
	CategoryNumber           ElementCategory = 2
	CategoryURL              ElementCategory = 3
	CategoryDate             ElementCategory = 4
	CategoryCheckbox         ElementCategory = 6
	CategoryCategories       ElementCategory = 7
	CategoryFormula          ElementCategory = 8
	CategoryDateCreated      ElementCategory = 9
	CategoryDateUpdated      ElementCategory = 10
	CategoryDateDeprecated   ElementCategory = 11
	CategoryUserCreatedBy    ElementCategory = 12
	CategoryUserUpdatedBy    ElementCategory = 13
	CategoryUserDeprecatedBy ElementCategory = 14
	CategoryPersons          ElementCategory = 15
	CategoryFiles            ElementCategory = 16
	CategoryReferences       ElementCategory = 17
	CategoryHierarchy        ElementCategory = 18
	CategorySubEntries       ElementCategory = 19
	CategoryDependencies     ElementCategory = 20
)

// Element is a field definition of a list.
type Element struct {
	ID           ID              `json:"id"`
	UUID         string          `json:"uuid"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     ElementCategory `json:"elementcategory"`
	Data         ElementData     `json:"elementData"`
	DeprecatedAt *time.Time      `json:"deprecated_at,omitempty"`
}

// ElementData holds the category-specific settings of an element.
type ElementData struct {
	Multiple             bool                 `json:"multiple,omitempty"`
	NumericType          string               `json:"numericType,omitempty"`
	PredefinedCategories []PredefinedCategory `json:"predefinedCategories,omitempty"`
	ChildList            *ChildList           `json:"childList,omitempty"`
}

// Numeric types reported in ElementData.NumericType.
const (
	NumericInteger = "integer"
	NumericDecimal = "decimal"
)

// PredefinedCategory is one label of a categories element.
type PredefinedCategory struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// ChildList names the list a references element points to.
type ChildList struct {
	ID   ID     `json:"id,omitempty"`
	UUID string `json:"uuid,omitempty"`
	Name string `json:"name"`
}

// File is an attachment stored in a files element.
type File struct {
	ID       ID     `json:"id"`
	ShortID  string `json:"shortId,omitempty"`
	UUID     string `json:"uuid,omitempty"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size,omitempty"`
	MimeType string `json:"mimetype,omitempty"`
	IsImage  bool   `json:"isImage,omitempty"`
	URL      string `json:"url,omitempty"`
}

// TextFormat is the markup of a text value.
type TextFormat string

const (
	TextPlain    TextFormat = "plain"
	TextMarkdown TextFormat = "markdown"
	TextHTML     TextFormat = "html"
)

// ParseTextFormat maps a stored text type to a TextFormat. Unknown and
// empty values are plain.
func ParseTextFormat(s string) TextFormat {
	switch TextFormat(s) {
	case TextMarkdown:
		return TextMarkdown
	case TextHTML:
		return TextHTML
	default:
		return TextPlain
	}
}

// EntriesRequest selects one page of entries.
type EntriesRequest struct {
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

// UpdateAction tells an update how to merge collection values.
const (
	UpdateActionKey     = "updateAction"
	UpdateActionReplace = "replace"
	UpdateActionAppend  = "append"
	UpdateActionRemove  = "remove"
)
