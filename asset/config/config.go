// Package config implements the per-asset settings document format: a
// simple INI-like format with nested (but flatly-keyed) section names,
// typed scalar/array values, comments, and accumulate-don't-abort
// parsing.
//
// Grounded on Nectar/include/nectar/hive/hive_value.h and hive_document.h:
// the document is not a recursively nested tree but a flat map keyed by
// the full dotted section path (e.g. "import.texture.mips"), and each
// value is a tagged struct over exactly five variants.
package config

import "fmt"

// ValueKind tags which field of Value is meaningful.
type ValueKind uint8

const (
	KindString ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindStringArray
)

// Value is a tagged settings value, mirroring HiveValue's simple
// all-fields-present-but-one-meaningful layout: with only a few dozen
// entries per document, the memory waste of unused fields is negligible
// and the representation stays trivial to (de)serialize.
type Value struct {
	Kind  ValueKind
	Str   string
	Bool  bool
	Int   int64
	Float float64
	Array []string
}

// String builds a KindString value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bool builds a KindBool value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int builds a KindInt value.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float builds a KindFloat value.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// StringArray builds a KindStringArray value.
func StringArray(items []string) Value { return Value{Kind: KindStringArray, Array: items} }

// AsString returns the value's Str field regardless of Kind, matching the
// original's unchecked-accessor convention; callers check Kind first when
// it matters.
func (v Value) AsString() string { return v.Str }

// AsBool returns the value's Bool field.
func (v Value) AsBool() bool { return v.Bool }

// AsInt returns the value's Int field.
func (v Value) AsInt() int64 { return v.Int }

// AsFloat returns the value's Float field.
func (v Value) AsFloat() float64 { return v.Float }

// AsStringArray returns the value's Array field.
func (v Value) AsStringArray() []string { return v.Array }

// Document is a settings document: a flat map from full dotted section
// path + key to its typed value. There is no nested tree type; a "section"
// is just a common key prefix.
type Document struct {
	entries map[string]Value
	order   []string // preserves insertion/parse order for round-trip writing
}

// New returns an empty Document.
func New() *Document {
	return &Document{entries: make(map[string]Value)}
}

// Set installs key's value, where key is the full dotted path
// "section.subsection.key".
func (d *Document) Set(key string, v Value) {
	if _, exists := d.entries[key]; !exists {
		d.order = append(d.order, key)
	}
	d.entries[key] = v
}

// Get returns key's value and whether it is present.
func (d *Document) Get(key string) (Value, bool) {
	v, ok := d.entries[key]
	return v, ok
}

// Keys returns every key in parse/insertion order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.order...)
}

// ParseError records one malformed line; parsing accumulates these rather
// than aborting, so one bad line in a settings file doesn't block the
// rest of it from loading.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: line %d: %s", e.Line, e.Message)
}
