package core

// Well-known metadata keys the core reads by name. Everything else in a
// document's metadata is opaque and carried through untouched.
const (
	// MetaTicketKey holds the ticketing-system identifier (e.g. "PROJ-42").
	MetaTicketKey = "ticket_key"
	// MetaURL holds the source URL of the document, when the adapter knows it.
	MetaURL = "url"
)

// ValueKind discriminates the closed set of metadata value kinds.
type ValueKind int

const (
	// KindString is a scalar string value.
	KindString ValueKind = iota + 1
	// KindNumber is a scalar numeric value.
	KindNumber
	// KindStringList is an ordered list of strings.
	KindStringList
)

// Value is a tagged union over the closed set of metadata value kinds.
// Exactly one of Str, Num or List is meaningful, selected by Kind.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	List []string
}

// String constructs a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number constructs a numeric value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// StringList constructs a string-list value.
func StringList(items ...string) Value { return Value{Kind: KindStringList, List: items} }

// Field is one metadata entry. Metadata preserves insertion order, which is
// why it is a slice of fields rather than a map.
type Field struct {
	Key   string
	Value Value
}

// Metadata is an ordered mapping of string keys to tagged values.
type Metadata []Field

// Get returns the value for key and whether it was present.
func (m Metadata) Get(key string) (Value, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Set replaces the value for key in place, appending when absent.
// Returns the updated metadata.
func (m Metadata) Set(key string, value Value) Metadata {
	for i, f := range m {
		if f.Key == key {
			m[i].Value = value
			return m
		}
	}
	return append(m, Field{Key: key, Value: value})
}

// GetString returns the string value for key, or "" when the key is absent
// or holds a different kind.
func (m Metadata) GetString(key string) string {
	v, ok := m.Get(key)
	if !ok || v.Kind != KindString {
		return ""
	}
	return v.Str
}

// Clone returns a deep copy of the metadata.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	copy(out, m)
	for i, f := range out {
		if f.Value.List != nil {
			out[i].Value.List = append([]string(nil), f.Value.List...)
		}
	}
	return out
}
