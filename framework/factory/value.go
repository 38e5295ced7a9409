package factory

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ── Argument values ───────────────────────────────────────────────────────────

// Kind tags the variant held by a Value.
type Kind int

const (
	KindScalar Kind = iota // opaque value passed through unchanged
	KindRef                // reference to another registration
	KindList               // ordered sequence of values
	KindSet                // unordered collection of values
	KindMap                // string-keyed mapping of values
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRef:
		return "ref"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a creator argument. References (possibly nested inside lists,
// sets and maps) are resolved before the constructor runs; everything else
// is handed over as-is.
//
//	factory.Scalar("localhost")
//	factory.Ref(queueCreator)
//	factory.RefTo(factory.KeyOf[*store.SQLiteStore]())
//	factory.List(factory.Ref(a), factory.Ref(b))
//	factory.Map(map[string]factory.Value{"primary": factory.Ref(db)})
type Value struct {
	kind    Kind
	scalar  any
	ref     Key
	creator *Creator
	items   []Value
	entries map[string]Value
}

// Scalar wraps an opaque value.
func Scalar(v any) Value { return Value{kind: KindScalar, scalar: v} }

// Ref references the key c builds. The reference resolves through the
// registry, so re-registering that key changes what the argument becomes.
func Ref(c *Creator) Value {
	return Value{kind: KindRef, ref: c.Key(), creator: c}
}

// RefTo references a key that may not be registered yet.
func RefTo(key Key) Value { return Value{kind: KindRef, ref: key} }

// List builds an ordered sequence; it resolves to []any.
func List(items ...Value) Value { return Value{kind: KindList, items: items} }

// Set builds an unordered collection; it resolves to []any with comparable
// duplicates removed.
func Set(items ...Value) Value { return Value{kind: KindSet, items: items} }

// Map builds a string-keyed mapping; it resolves to map[string]any.
func Map(entries map[string]Value) Value {
	cp := make(map[string]Value, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	return Value{kind: KindMap, entries: cp}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Scalar returns the wrapped value for KindScalar.
func (v Value) Scalar() any { return v.scalar }

// RefKey returns the referenced key for KindRef.
func (v Value) RefKey() Key { return v.ref }

// Items returns the elements of a list or set.
func (v Value) Items() []Value { return append([]Value(nil), v.items...) }

// Entries returns the entries of a map.
func (v Value) Entries() map[string]Value {
	cp := make(map[string]Value, len(v.entries))
	for k, e := range v.entries {
		cp[k] = e
	}
	return cp
}

// refs appends every key referenced by v, at any depth.
func (v Value) refs(out []Key) []Key {
	switch v.kind {
	case KindRef:
		out = append(out, v.ref)
	case KindList, KindSet:
		for _, it := range v.items {
			out = it.refs(out)
		}
	case KindMap:
		for _, k := range sortedKeys(v.entries) {
			out = v.entries[k].refs(out)
		}
	}
	return out
}

// String renders the value for diagnostics. References render as the
// description of the creator they were built from, or their key.
func (v Value) String() string {
	switch v.kind {
	case KindRef:
		if v.creator != nil {
			return v.creator.String()
		}
		return v.ref.String()
	case KindList:
		return "[" + joinValues(v.items) + "]"
	case KindSet:
		return "{" + joinValues(v.items) + "}"
	case KindMap:
		parts := make([]string, 0, len(v.entries))
		for _, k := range sortedKeys(v.entries) {
			parts = append(parts, fmt.Sprintf("%q: %s", k, v.entries[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		if s, ok := v.scalar.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprintf("%v", v.scalar)
	}
}

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, it := range vs {
		parts[i] = it.String()
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// dedupe drops repeated comparable values, keeping first occurrences.
func dedupe(vals []any) []any {
	out := make([]any, 0, len(vals))
	seen := make(map[any]struct{}, len(vals))
	for _, v := range vals {
		if v != nil && reflect.ValueOf(v).Comparable() {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
		}
		out = append(out, v)
	}
	return out
}
