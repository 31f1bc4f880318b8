// Package params exposes the mutable parameters of phase functions and
// medium fields under flat dotted names, and re-validates their owners
// after an update.
//
// Updates are a serialized phase: callers must not evaluate or sample any
// object reachable from the root while Map.Set or Map.Update run.
package params

import (
	"fmt"
	"sort"
	"strings"
)

// Flags describe how a parameter may be used by an optimizer
type Flags uint8

const (
	// Differentiable marks parameters that gradients may flow into
	Differentiable Flags = 1 << iota
	// NonDifferentiable marks parameters that may be changed but not optimized
	NonDifferentiable
)

// Callback receives the parameters and child objects of a Traversable
type Callback interface {
	PutParameter(name string, value *float64, flags Flags)
	PutObject(name string, obj any, flags Flags)
}

// Traversable is implemented by objects that expose parameters or children
type Traversable interface {
	Traverse(cb Callback)
}

// ChangeNotifier is implemented by objects that must re-derive or re-validate
// state after some of their parameters changed. keys are the local names of
// the changed parameters, or the names of changed children.
type ChangeNotifier interface {
	ParametersChanged(keys []string) error
}

type entry struct {
	value *float64
	flags Flags
	owner any
	local string
}

// Map is a flattened view of every parameter reachable from a root object
type Map struct {
	entries map[string]*entry
	// parents records the owner chain so ancestors are notified too
	parents map[any]parentLink
	dirty   map[string]float64
}

type parentLink struct {
	parent any
	name   string
}

// Collect walks root and every Traversable child reachable from it
func Collect(root Traversable) *Map {
	m := &Map{
		entries: make(map[string]*entry),
		parents: make(map[any]parentLink),
		dirty:   make(map[string]float64),
	}
	m.walk(root, "")
	return m
}

func (m *Map) walk(obj Traversable, prefix string) {
	obj.Traverse(&collector{m: m, owner: obj, prefix: prefix})
}

type collector struct {
	m      *Map
	owner  any
	prefix string
}

func (c *collector) PutParameter(name string, value *float64, flags Flags) {
	c.m.entries[c.prefix+name] = &entry{value: value, flags: flags, owner: c.owner, local: name}
}

func (c *collector) PutObject(name string, obj any, flags Flags) {
	child, ok := obj.(Traversable)
	if !ok {
		return
	}
	if _, seen := c.m.parents[child]; !seen {
		c.m.parents[child] = parentLink{parent: c.owner, name: name}
	}
	c.m.walk(child, c.prefix+name+".")
}

// Keys returns every parameter name in sorted order
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the current value of a parameter
func (m *Map) Get(name string) (float64, bool) {
	e, ok := m.entries[name]
	if !ok {
		return 0, false
	}
	return *e.value, true
}

// Flags returns the flags a parameter was registered with
func (m *Map) Flags(name string) (Flags, bool) {
	e, ok := m.entries[name]
	if !ok {
		return 0, false
	}
	return e.flags, true
}

// Set writes a new value and marks the parameter for the next Update
func (m *Map) Set(name string, value float64) error {
	e, ok := m.entries[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	if _, pending := m.dirty[name]; !pending {
		m.dirty[name] = *e.value
	}
	*e.value = value
	return nil
}

// Update notifies the owners of every parameter changed since the last
// Update, then their ancestors. If any owner rejects the change, every
// pending value is restored and the error is returned.
func (m *Map) Update() error {
	if len(m.dirty) == 0 {
		return nil
	}

	// Group dirty keys by owner, ordered deepest first so children settle
	// before their parents re-derive anything from them.
	byOwner := make(map[any][]string)
	var names []string
	for name := range m.dirty {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		di, dj := strings.Count(names[i], "."), strings.Count(names[j], ".")
		if di != dj {
			return di > dj
		}
		return names[i] < names[j]
	})

	var order []any
	for _, name := range names {
		e := m.entries[name]
		if _, ok := byOwner[e.owner]; !ok {
			order = append(order, e.owner)
		}
		byOwner[e.owner] = append(byOwner[e.owner], e.local)
	}

	// Ancestors learn which child changed
	for i := 0; i < len(order); i++ {
		link, ok := m.parents[order[i]]
		if !ok {
			continue
		}
		if _, ok := byOwner[link.parent]; !ok {
			order = append(order, link.parent)
		}
		byOwner[link.parent] = appendUnique(byOwner[link.parent], link.name)
	}

	for _, owner := range order {
		notifier, ok := owner.(ChangeNotifier)
		if !ok {
			continue
		}
		if err := notifier.ParametersChanged(byOwner[owner]); err != nil {
			m.rollback()
			return err
		}
	}

	m.dirty = make(map[string]float64)
	return nil
}

func (m *Map) rollback() {
	for name, prev := range m.dirty {
		*m.entries[name].value = prev
	}
	m.dirty = make(map[string]float64)
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
