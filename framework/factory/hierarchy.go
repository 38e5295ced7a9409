package factory

import "reflect"

// hierarchy holds declared "child extends parent" facts. Go has no class
// inheritance to inspect, so each subtype relation the factory honours is
// declared explicitly with Factory.Extends.
type hierarchy struct {
	parents map[reflect.Type][]reflect.Type
}

func newHierarchy() *hierarchy {
	return &hierarchy{parents: make(map[reflect.Type][]reflect.Type)}
}

func (h *hierarchy) extend(child reflect.Type, parents ...reflect.Type) {
	for _, p := range parents {
		if p == nil || p == child || h.hasDirect(child, p) {
			continue
		}
		h.parents[child] = append(h.parents[child], p)
	}
}

func (h *hierarchy) hasDirect(child, parent reflect.Type) bool {
	for _, p := range h.parents[child] {
		if p == parent {
			return true
		}
	}
	return false
}

// isSubtype reports whether parent is a direct or inherited ancestor of
// child. A type is never its own subtype.
func (h *hierarchy) isSubtype(child, parent reflect.Type) bool {
	if child == parent {
		return false
	}
	seen := map[reflect.Type]bool{child: true}
	stack := append([]reflect.Type(nil), h.parents[child]...)
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t == parent {
			return true
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		stack = append(stack, h.parents[t]...)
	}
	return false
}

// eligible reports whether a registration of type registered can serve a
// request for type requested.
func (h *hierarchy) eligible(registered, requested reflect.Type) bool {
	return registered == requested || h.isSubtype(registered, requested)
}
