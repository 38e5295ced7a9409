package factory

import (
	"reflect"
)

// Key identifies a registration: a type identity token plus an optional
// name. The empty name is the unnamed, type-only key.
//
// Keys are comparable and safe to use as map keys.
type Key struct {
	Type reflect.Type
	Name string
}

// NewKey builds a key for t. Omitting name gives the unnamed key.
func NewKey(t reflect.Type, name ...string) Key {
	k := Key{Type: t}
	if len(name) > 0 {
		k.Name = name[0]
	}
	return k
}

// KeyOf returns the unnamed key for T.
//
//	factory.KeyOf[*task.Queue]()
//	factory.KeyOf[store.DocumentStore]() // interfaces work too
func KeyOf[T any]() Key {
	return Key{Type: TypeOf[T]()}
}

// NamedKeyOf returns the key for T registered under name.
func NamedKeyOf[T any](name string) Key {
	return Key{Type: TypeOf[T](), Name: name}
}

// TypeOf returns the identity token for T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Named reports whether the key carries a name.
func (k Key) Named() bool { return k.Name != "" }

// Unnamed returns the type-only form of k.
func (k Key) Unnamed() Key { return Key{Type: k.Type} }

// String renders Key[<type>] or Key[<type>#<name>].
func (k Key) String() string {
	s := "Key[" + typeName(k.Type)
	if k.Named() {
		s += "#" + k.Name
	}
	return s + "]"
}

// label is the candidate name used in ambiguity reports.
func (k Key) label() string {
	if k.Named() {
		return k.Name
	}
	return "[unnamed-" + typeName(k.Type) + "]"
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
