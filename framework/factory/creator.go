package factory

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/km-arc/go-planteuf/framework/sanitize"
)

// Constructor builds the value for a registration from its resolved
// arguments.
type Constructor func(in Input) (any, error)

// Input carries the resolved arguments handed to a Constructor. Every
// reference has already been replaced by the instance it resolved to;
// lists and sets arrive as []any and maps as map[string]any.
type Input struct {
	Args  []any
	Named map[string]any
}

// Arg returns the i-th positional argument, or nil when out of range.
func (in Input) Arg(i int) any {
	if i < 0 || i >= len(in.Args) {
		return nil
	}
	return in.Args[i]
}

// Get returns the named argument, or nil.
func (in Input) Get(name string) any { return in.Named[name] }

// ArgAs returns the i-th positional argument as T.
func ArgAs[T any](in Input, i int) (T, error) {
	return as[T](in.Arg(i), fmt.Sprintf("argument %d", i))
}

// NamedAs returns the named argument as T.
func NamedAs[T any](in Input, name string) (T, error) {
	return as[T](in.Get(name), fmt.Sprintf("argument %q", name))
}

func as[T any](v any, what string) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: want %s, got %T", what, TypeOf[T](), v)
	}
	return t, nil
}

// ── Creator ───────────────────────────────────────────────────────────────────

// Creator is an immutable recipe: the key it builds, how to build it, and
// the arguments to build it with.
type Creator struct {
	key   Key
	ctor  Constructor
	args  []Value
	named map[string]Value
}

// NewCreator stores a recipe. Arguments are not inspected until the
// creator is instantiated.
func NewCreator(key Key, ctor Constructor, args []Value, named map[string]Value) *Creator {
	c := &Creator{
		key:   key,
		ctor:  ctor,
		args:  append([]Value(nil), args...),
		named: make(map[string]Value, len(named)),
	}
	for k, v := range named {
		c.named[k] = v
	}
	return c
}

// Key returns the key this creator builds.
func (c *Creator) Key() Key { return c.key }

// Args returns a copy of the positional arguments.
func (c *Creator) Args() []Value { return append([]Value(nil), c.args...) }

// Named returns a copy of the named arguments.
func (c *Creator) Named() map[string]Value {
	cp := make(map[string]Value, len(c.named))
	for k, v := range c.named {
		cp[k] = v
	}
	return cp
}

// Dependencies returns every key referenced from the arguments, including
// references nested in lists, sets and maps. Positional references come
// first, then named ones in name order.
func (c *Creator) Dependencies() []Key {
	var out []Key
	for _, a := range c.args {
		out = a.refs(out)
	}
	for _, name := range sortedKeys(c.named) {
		out = c.named[name].refs(out)
	}
	return out
}

func (c *Creator) dependsOn(key Key) bool {
	for _, dep := range c.Dependencies() {
		if dep == key {
			return true
		}
	}
	return false
}

var (
	describerOnce sync.Once
	describerSan  *sanitize.Sanitizer
)

// describer hides every named argument except references, which are
// rendered by their own description. It is built on first use because the
// replacement calls back into Creator.String.
func describer() *sanitize.Sanitizer {
	describerOnce.Do(func() {
		describerSan = sanitize.New(
			sanitize.SanitizePatterns(regexp.MustCompile(".*")),
			sanitize.WithFunc(func(_ string, v any) any {
				if ref, ok := v.(Value); ok {
					return ref.String()
				}
				return fmt.Sprintf("'**SANITIZED %T**'", v)
			}),
		)
	})
	return describerSan
}

// unwrap turns a Value into the plain shape the sanitizer walks. Refs stay
// Values so the sanitizer's replacement can tell them apart.
func unwrap(v Value) any {
	switch v.kind {
	case KindRef:
		return v
	case KindList, KindSet:
		items := make([]any, len(v.items))
		for i, it := range v.items {
			items[i] = unwrap(it)
		}
		return items
	case KindMap:
		m := make(map[string]any, len(v.entries))
		for k, e := range v.entries {
			m[k] = unwrap(e)
		}
		return m
	default:
		return v.scalar
	}
}

// String describes the creator for logs. Positional arguments are printed
// as given; named arguments are always redacted.
//
//	Creator[*task.Orchestrator](Creator[*task.Queue](), store='**SANITIZED string**')
func (c *Creator) String() string {
	parts := make([]string, 0, len(c.args)+len(c.named))
	for _, a := range c.args {
		parts = append(parts, a.String())
	}

	raw := make(map[string]any, len(c.named))
	for k, v := range c.named {
		raw[k] = unwrap(v)
	}
	safe := describer().Sanitize(raw)
	names := make([]string, 0, len(safe))
	for k := range safe {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", k, safe[k]))
	}

	return fmt.Sprintf("Creator[%s](%s)", typeName(c.key.Type), strings.Join(parts, ", "))
}
