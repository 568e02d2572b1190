package zenkit

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// Entry is one record (item) of a list. Field values live in Fields,
// keyed by "<element uuid>_<suffix>", and stay dynamically typed because
// their shape is only known from the list schema.
type Entry struct {
	ID             ID         `json:"id"`
	ShortID        string     `json:"shortId"`
	UUID           string     `json:"uuid"`
	ListID         ID         `json:"listId"`
	DisplayString  string     `json:"displayString"`
	SortOrder      float64    `json:"sortOrder"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeprecatedAt   *time.Time `json:"deprecated_at,omitempty"`
	CreatedByID    ID         `json:"created_by"`
	CreatedByName  string     `json:"created_by_displayname,omitempty"`
	UpdatedByID    ID         `json:"updated_by"`
	UpdatedByName  string     `json:"updated_by_displayname,omitempty"`
	DeprecatedByID *ID        `json:"deprecated_by,omitempty"`

	Fields map[string]any `json:"-"`
}

var entryKeys = map[string]bool{
	"id": true, "shortId": true, "uuid": true, "listId": true,
	"displayString": true, "sortOrder": true, "created_at": true,
	"updated_at": true, "deprecated_at": true, "created_by": true,
	"created_by_displayname": true, "updated_by": true,
	"updated_by_displayname": true, "deprecated_by": true,
}

type entryAlias Entry

// UnmarshalJSON decodes the fixed entry attributes and collects every other
// key into Fields. Numbers are kept as json.Number so ids do not lose
// precision.
func (e *Entry) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*entryAlias)(e)); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	e.Fields = make(map[string]any, len(raw))
	for k, v := range raw {
		if !entryKeys[k] {
			e.Fields[k] = v
		}
	}
	return nil
}

// MarshalJSON writes the fixed attributes and Fields as one flat object.
func (e Entry) MarshalJSON() ([]byte, error) {
	fixed, err := json.Marshal(entryAlias(e))
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(e.Fields)+len(entryKeys))
	for k, v := range e.Fields {
		out[k] = v
	}
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(fixed, &attrs); err != nil {
		return nil, err
	}
	for k, v := range attrs {
		out[k] = v
	}
	return json.Marshal(out)
}

// Text returns the string stored under key.
func (e *Entry) Text(key string) (string, bool) {
	s, ok := e.Fields[key].(string)
	return s, ok
}

// Int returns the number under key as an integer. Fractional values are
// reported as absent.
func (e *Entry) Int(key string) (int64, bool) {
	return toInt(e.Fields[key])
}

// Float returns the number under key.
func (e *Entry) Float(key string) (float64, bool) {
	return toFloat(e.Fields[key])
}

// Bool returns the boolean under key, false when absent.
func (e *Entry) Bool(key string) bool {
	b, _ := e.Fields[key].(bool)
	return b
}

// Time returns the timestamp under key in UTC. Unparseable values are
// reported as absent.
func (e *Entry) Time(key string) (time.Time, bool) {
	s, ok := e.Fields[key].(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	return ParseTime(s)
}

// IDs returns the numeric ids stored as an array under key.
func (e *Entry) IDs(key string) []ID {
	arr, _ := e.Fields[key].([]any)
	var ids []ID
	for _, v := range arr {
		if id, ok := toID(v); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// FirstID returns the first id of IDs(key).
func (e *Entry) FirstID(key string) (ID, bool) {
	ids := e.IDs(key)
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// HasID reports whether id is in IDs(key).
func (e *Entry) HasID(key string, id ID) bool {
	for _, v := range e.IDs(key) {
		if v == id {
			return true
		}
	}
	return false
}

// Strings returns the strings stored as an array under key.
func (e *Entry) Strings(key string) []string {
	arr, _ := e.Fields[key].([]any)
	var out []string
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ObjectStrings collects the string property prop of every object in the
// array under key ("<uuid>_persons_sort" -> "displayname", ...).
func (e *Entry) ObjectStrings(key, prop string) []string {
	var out []string
	for _, obj := range e.objects(key) {
		if s, ok := obj[prop].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ObjectIDs collects the numeric property prop of every object under key.
func (e *Entry) ObjectIDs(key, prop string) []ID {
	var out []ID
	for _, obj := range e.objects(key) {
		if id, ok := toID(obj[prop]); ok {
			out = append(out, id)
		}
	}
	return out
}

// FirstObjectString returns the first value of ObjectStrings(key, prop).
func (e *Entry) FirstObjectString(key, prop string) (string, bool) {
	vals := e.ObjectStrings(key, prop)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// FirstObjectID returns the first value of ObjectIDs(key, prop).
func (e *Entry) FirstObjectID(key, prop string) (ID, bool) {
	vals := e.ObjectIDs(key, prop)
	if len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// Files decodes the file metadata under key. An absent key yields no files
// and no error.
func (e *Entry) Files(key string) ([]File, error) {
	v, ok := e.Fields[key]
	if !ok || v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s", key)
	}
	var files []File
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", key)
	}
	return files, nil
}

func (e *Entry) objects(key string) []map[string]any {
	arr, _ := e.Fields[key].([]any)
	var out []map[string]any
	for _, v := range arr {
		if obj, ok := v.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// ParseTime parses Zenkit timestamps (RFC 3339 or a plain date) into UTC.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTime renders t the way Zenkit stores dates.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// IsFinite reports whether f can be stored as a JSON number.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case ID:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case ID:
		return int64(n), true
	default:
		return 0, false
	}
}

func toID(v any) (ID, bool) {
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		return ID(u), err == nil
	case float64:
		if n < 0 || n != math.Trunc(n) {
			return 0, false
		}
		return ID(n), true
	case ID:
		return n, true
	case int:
		return ID(n), n >= 0
	case int64:
		return ID(n), n >= 0
	default:
		return 0, false
	}
}
