package factory

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// ── Factory ───────────────────────────────────────────────────────────────────

// Factory is a type-keyed registry of lazily built singletons.
//
// It supports:
//   - Register / Delete of creators, keyed by type and optional name
//   - Resolve (generic Get) with subtype fallback for unnamed keys
//   - ResolveAll (generic GetAll) for every implementation of a type
//   - Cache invalidation of a key and everything built on top of it
//   - ListKeys / GetCreator / Visit introspection without instantiation
//
// All operations are serialized by one mutex. Constructors run while it is
// held and must not call back into the same Factory.
type Factory struct {
	mu sync.Mutex

	// key → recipe
	creators map[Key]*Creator

	// registration order of creators
	order []Key

	// key → built instance
	cache map[Key]any

	// key → keys its cached instance was actually built from
	uses map[Key][]Key

	// declared subtype facts
	types *hierarchy

	// resolved callbacks: []func(key, instance)
	afterResolving []func(Key, any)
}

// New creates an empty factory. Most code uses Global instead.
func New() *Factory {
	return &Factory{
		creators: make(map[Key]*Creator),
		cache:    make(map[Key]any),
		uses:     make(map[Key][]Key),
		types:    newHierarchy(),
	}
}

// ── Types ─────────────────────────────────────────────────────────────────────

// Extends declares that child is a subtype of each parent. Unnamed requests
// for a parent then reach registrations made for child.
//
//	f.Extends(factory.TypeOf[*store.SQLiteStore](), factory.TypeOf[store.DocumentStore]())
func (f *Factory) Extends(child reflect.Type, parents ...reflect.Type) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types.extend(child, parents...)
}

// Declare is the generic form of Extends for one parent.
func Declare[Child, Parent any](f *Factory) {
	f.Extends(TypeOf[Child](), TypeOf[Parent]())
}

// IsSubtype reports whether parent was declared, directly or through other
// declarations, as an ancestor of child. It is false when child == parent.
func (f *Factory) IsSubtype(child, parent reflect.Type) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.types.isSubtype(child, parent)
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register stores the recipe for key, replacing any previous one.
//
// The cached instance of key is dropped, and so is every cached instance
// that depends on key directly or through other registrations, so the next
// resolution rebuilds them with the new recipe.
//
//	queue := f.Register(factory.KeyOf[*task.Queue](), newQueue, nil, nil)
//	f.Register(factory.KeyOf[*task.Orchestrator](), newOrchestrator,
//	    []factory.Value{factory.Ref(queue), factory.RefTo(factory.KeyOf[store.DocumentStore]())},
//	    nil)
func (f *Factory) Register(key Key, ctor Constructor, args []Value, named map[string]Value) *Creator {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.invalidate(key)

	c := NewCreator(key, ctor, args, named)
	if _, exists := f.creators[key]; !exists {
		f.order = append(f.order, key)
	}
	f.creators[key] = c
	return c
}

// Delete removes the creator and cached instance of key. Instances built
// from it stay cached.
func (f *Factory) Delete(key Key) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.creators[key]; ok {
		delete(f.creators, key)
		for i, k := range f.order {
			if k == key {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}
	f.evict(key)
}

// Reset drops every creator and cached instance. Declared subtypes and
// callbacks are kept.
func (f *Factory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators = make(map[Key]*Creator)
	f.order = nil
	f.cache = make(map[Key]any)
	f.uses = make(map[Key][]Key)
}

// invalidate evicts key and, to a fixed point, every key depending on an
// evicted one (must hold mu).
func (f *Factory) invalidate(key Key) {
	pending := []Key{key}
	seen := map[Key]bool{key: true}
	for len(pending) > 0 {
		k := pending[0]
		pending = pending[1:]
		for _, dependent := range f.dependents(k) {
			if !seen[dependent] {
				seen[dependent] = true
				pending = append(pending, dependent)
			}
		}
		f.evict(k)
	}
}

// dependents lists keys whose recipe references k, or whose cached instance
// was built from k (must hold mu).
func (f *Factory) dependents(k Key) []Key {
	var out []Key
	for _, other := range f.order {
		if other == k {
			continue
		}
		if f.creators[other].dependsOn(k) {
			out = append(out, other)
			continue
		}
		for _, used := range f.uses[other] {
			if used == k {
				out = append(out, other)
				break
			}
		}
	}
	return out
}

func (f *Factory) evict(k Key) {
	delete(f.cache, k)
	delete(f.uses, k)
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// GetCreator returns the creator resolution would use for key, without
// building anything. An unregistered key yields (nil, nil); an ambiguous
// one yields an ErrAmbiguousRegistration error.
func (f *Factory) GetCreator(key Key) (*Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, c, err := f.lookup(key)
	if err != nil {
		if errors.Is(err, ErrNotRegistered) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// lookup finds the registration serving key: an exact match, or for an
// unnamed key the single registration whose type is key.Type or one of
// its declared subtypes (must hold mu).
func (f *Factory) lookup(key Key) (Key, *Creator, error) {
	if c, ok := f.creators[key]; ok {
		return key, c, nil
	}
	if key.Named() {
		return key, nil, &Error{Kind: ErrNotRegistered, Key: key}
	}

	eligible := f.eligible(key.Type, false)
	switch len(eligible) {
	case 0:
		return key, nil, &Error{Kind: ErrNotRegistered, Key: key}
	case 1:
		return eligible[0], f.creators[eligible[0]], nil
	default:
		return key, nil, &Error{Kind: ErrAmbiguousRegistration, Key: key, Candidates: eligible}
	}
}

// eligible lists, in registration order, keys whose type can serve t
// (must hold mu).
func (f *Factory) eligible(t reflect.Type, namedOnly bool) []Key {
	var out []Key
	for _, k := range f.order {
		if namedOnly && !k.Named() {
			continue
		}
		if f.types.eligible(k.Type, t) {
			out = append(out, k)
		}
	}
	return out
}

// ListKeys returns, in registration order, the keys whose type is t or a
// declared subtype of t. With namedOnly, unnamed keys are skipped.
func (f *Factory) ListKeys(t reflect.Type, namedOnly bool) []Key {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eligible(t, namedOnly)
}

// Keys returns every registered key in registration order.
func (f *Factory) Keys() []Key {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Key(nil), f.order...)
}

// Bound reports whether key itself is registered.
func (f *Factory) Bound(key Key) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.creators[key]
	return ok
}

// Resolved reports whether key currently has a cached instance.
func (f *Factory) Resolved(key Key) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.cache[key]
	return ok
}

// ── Resolution ────────────────────────────────────────────────────────────────

// resolution tracks one top-level Resolve call.
type resolution struct {
	stack  []Key
	active map[Key]bool
	built  []built
}

type built struct {
	key      Key
	instance any
}

func newResolution() *resolution {
	return &resolution{active: make(map[Key]bool)}
}

// Resolve returns the instance for key, building it and its dependencies
// on first use. Later calls return the cached instance until the key, or
// something it depends on, is registered again.
//
//	raw, err := f.Resolve(factory.KeyOf[*task.Orchestrator]())
func (f *Factory) Resolve(key Key) (any, error) {
	r := newResolution()
	f.mu.Lock()
	v, _, err := f.resolve(key, r)
	f.mu.Unlock()
	f.fireAfterResolving(r.built)
	return v, err
}

// ResolveAll builds every registration whose type is t or a declared
// subtype of t, each cached under its own key. Equal instances are
// reported once.
func (f *Factory) ResolveAll(t reflect.Type) ([]any, error) {
	r := newResolution()
	f.mu.Lock()
	var (
		out []any
		err error
	)
	for _, k := range f.eligible(t, false) {
		var v any
		if v, _, err = f.resolve(k, r); err != nil {
			out = nil
			break
		}
		out = append(out, v)
	}
	f.mu.Unlock()
	f.fireAfterResolving(r.built)
	if err != nil {
		return nil, err
	}
	return dedupe(out), nil
}

// resolve is the recursive resolver; it returns the instance and the key it
// is cached under (must hold mu).
func (f *Factory) resolve(key Key, r *resolution) (any, Key, error) {
	k, c, err := f.lookup(key)
	if err != nil {
		return nil, key, err
	}
	if v, ok := f.cache[k]; ok {
		return v, k, nil
	}

	if r.active[k] {
		return nil, k, &Error{Kind: ErrCyclicDependency, Key: k, Path: r.cycle(k)}
	}
	r.active[k] = true
	r.stack = append(r.stack, k)
	defer func() {
		r.stack = r.stack[:len(r.stack)-1]
		delete(r.active, k)
	}()

	var deps []Key
	args := make([]any, len(c.args))
	for i, a := range c.args {
		v, err := f.resolveValue(a, r, &deps)
		if err != nil {
			return nil, k, &Error{Kind: ErrInstantiationFailed, Key: k, Creator: c, Cause: err}
		}
		args[i] = v
	}
	named := make(map[string]any, len(c.named))
	for name, a := range c.named {
		v, err := f.resolveValue(a, r, &deps)
		if err != nil {
			return nil, k, &Error{Kind: ErrInstantiationFailed, Key: k, Creator: c, Cause: err}
		}
		named[name] = v
	}

	instance, err := construct(c, Input{Args: args, Named: named})
	if err != nil {
		return nil, k, &Error{Kind: ErrInstantiationFailed, Key: k, Creator: c, Cause: err}
	}

	f.cache[k] = instance
	f.uses[k] = deps
	r.built = append(r.built, built{key: k, instance: instance})
	return instance, k, nil
}

// resolveValue replaces every reference inside v by its instance, recording
// the keys it resolved through (must hold mu).
func (f *Factory) resolveValue(v Value, r *resolution, deps *[]Key) (any, error) {
	switch v.kind {
	case KindRef:
		inst, k, err := f.resolve(v.ref, r)
		if err != nil {
			return nil, err
		}
		*deps = append(*deps, k)
		return inst, nil
	case KindList, KindSet:
		items := make([]any, len(v.items))
		for i, it := range v.items {
			val, err := f.resolveValue(it, r, deps)
			if err != nil {
				return nil, err
			}
			items[i] = val
		}
		if v.kind == KindSet {
			return dedupe(items), nil
		}
		return items, nil
	case KindMap:
		m := make(map[string]any, len(v.entries))
		for _, name := range sortedKeys(v.entries) {
			val, err := f.resolveValue(v.entries[name], r, deps)
			if err != nil {
				return nil, err
			}
			m[name] = val
		}
		return m, nil
	default:
		return v.scalar, nil
	}
}

// construct runs the creator's constructor, turning panics into errors and
// checking the result against the key's type.
func construct(c *Creator, in Input) (instance any, err error) {
	if c.ctor == nil {
		return nil, fmt.Errorf("no constructor for %s", c.key)
	}
	defer func() {
		if rec := recover(); rec != nil {
			instance = nil
			err = &PanicError{Value: rec}
		}
	}()

	instance, err = c.ctor(in)
	if err != nil {
		return nil, err
	}
	if instance != nil && c.key.Type != nil && !reflect.TypeOf(instance).AssignableTo(c.key.Type) {
		return nil, fmt.Errorf("%w: built %T, want %s", ErrTypeMismatch, instance, c.key.Type)
	}
	return instance, nil
}

// cycle returns the chain from the first visit of k back to k.
func (r *resolution) cycle(k Key) []Key {
	for i, s := range r.stack {
		if s == k {
			return append(append([]Key(nil), r.stack[i:]...), k)
		}
	}
	return []Key{k, k}
}

// ── Visiting ──────────────────────────────────────────────────────────────────

// Visitor receives every registration, for export or diagnostics.
type Visitor interface {
	Visit(key Key, c *Creator)
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(key Key, c *Creator)

// Visit implements Visitor.
func (fn VisitorFunc) Visit(key Key, c *Creator) { fn(key, c) }

// Visit calls v for every registration in registration order. It works on
// a snapshot, so v may call back into the factory; nothing is built.
func (f *Factory) Visit(v Visitor) {
	f.mu.Lock()
	keys := append([]Key(nil), f.order...)
	creators := make([]*Creator, len(keys))
	for i, k := range keys {
		creators[i] = f.creators[k]
	}
	f.mu.Unlock()

	for i, k := range keys {
		v.Visit(k, creators[i])
	}
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired for every instance built, after
// the Resolve call that built it has released the factory.
func (f *Factory) AfterResolving(cb func(key Key, instance any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterResolving = append(f.afterResolving, cb)
}

func (f *Factory) fireAfterResolving(events []built) {
	if len(events) == 0 {
		return
	}
	f.mu.Lock()
	cbs := slices.Clone(f.afterResolving)
	f.mu.Unlock()
	for _, e := range events {
		for _, cb := range cbs {
			cb(e.key, e.instance)
		}
	}
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Typed adapts a constructor returning a concrete type.
//
//	f.Register(factory.KeyOf[*task.Queue](), factory.Typed(func(factory.Input) (*task.Queue, error) {
//	    return task.NewQueue(), nil
//	}), nil, nil)
func Typed[T any](fn func(in Input) (T, error)) Constructor {
	return func(in Input) (any, error) {
		return fn(in)
	}
}

// Get resolves T, optionally by name, and type-asserts the result.
//
//	orch, err := factory.Get[*task.Orchestrator](f)
//	primary, err := factory.Get[store.DocumentStore](f, "primary")
func Get[T any](f *Factory, name ...string) (T, error) {
	key := NewKey(TypeOf[T](), name...)
	raw, err := f.Resolve(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](key, raw)
}

// MustGet is Get for bootstrap code, panicking on error.
func MustGet[T any](f *Factory, name ...string) T {
	v, err := Get[T](f, name...)
	if err != nil {
		panic(err)
	}
	return v
}

// GetAll resolves every registration serving T.
func GetAll[T any](f *Factory) ([]T, error) {
	raws, err := f.ResolveAll(TypeOf[T]())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		v, err := cast[T](KeyOf[T](), raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func cast[T any](key Key, raw any) (T, error) {
	if raw == nil {
		var zero T
		return zero, nil
	}
	v, ok := raw.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("factory: %s resolved to %T: %w", key, raw, ErrTypeMismatch)
	}
	return v, nil
}
