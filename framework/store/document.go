package store

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Document is a JSON object.
type Document map[string]any

// ID returns the document's _id, or "" when unset.
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return map[string]any(Document(x).Clone())
	case Document:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i, it := range x {
			out[i] = cloneValue(it)
		}
		return out
	default:
		return v
	}
}

// Encode converts v into a Document through its JSON form.
//
//	doc, err := store.Encode(task)
func Encode(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode fills v from doc through its JSON form.
func Decode(doc Document, v any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// ── Projection ─────────────────────────────────────────────────────────────

// Projection selects fields: 1 includes, 0 excludes. With any inclusion
// only included fields and _id are returned; _id can still be excluded
// explicitly.
//
//	store.Projection{"status": 1}   // _id and status
//	store.Projection{"log": 0}      // everything but log
type Projection map[string]int

// Apply returns the projected copy of doc.
func (p Projection) Apply(doc Document) Document {
	if doc == nil || len(p) == 0 {
		return doc
	}
	include := false
	for _, v := range p {
		if v != 0 {
			include = true
			break
		}
	}

	out := make(Document, len(doc))
	for k, v := range doc {
		flag, listed := p[k]
		switch {
		case k == FieldID:
			if !listed || flag != 0 {
				out[k] = v
			}
		case include:
			if listed && flag != 0 {
				out[k] = v
			}
		default:
			if !listed || flag != 0 {
				out[k] = v
			}
		}
	}
	return out
}

// ── Query ───────────────────────────────────────────────────────────────────

// Query filters documents. A field maps either to a value compared for
// equality or to an operator map:
//
//	store.Query{"author": "ana", "status": store.Query{"$nin": []any{"completed", "failed"}}}
type Query map[string]any

// Supported query operators.
const (
	OpIn  = "$in"
	OpNin = "$nin"
	OpNe  = "$ne"
)

// normalize puts q into its JSON form so that typed values such as string
// enums or ints compare equal to decoded documents.
func (q Query) normalize() (Query, error) {
	if len(q) == 0 {
		return nil, nil
	}
	doc, err := Encode(map[string]any(q))
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return Query(doc), nil
}

// Match reports whether doc satisfies every condition of q. q must already
// be normalized.
func (q Query) Match(doc Document) (bool, error) {
	for field, cond := range q {
		value, present := doc[field]
		ops, isOps := cond.(map[string]any)
		if !isOps {
			if !present || !equal(value, cond) {
				return false, nil
			}
			continue
		}
		for op, arg := range ops {
			ok, err := matchOp(op, value, present, arg)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func matchOp(op string, value any, present bool, arg any) (bool, error) {
	switch op {
	case OpNe:
		return !present || !equal(value, arg), nil
	case OpIn, OpNin:
		list, ok := arg.([]any)
		if !ok {
			return false, fmt.Errorf("operator %s needs a list, got %T", op, arg)
		}
		found := false
		if present {
			for _, candidate := range list {
				if equal(value, candidate) {
					found = true
					break
				}
			}
		}
		if op == OpIn {
			return found, nil
		}
		return !found, nil
	default:
		return false, fmt.Errorf("unsupported operator %q", op)
	}
}

func equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
