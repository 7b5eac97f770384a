package stash

// Object is a live view over a mapping node inside a store. Any write
// through an Object stores the value on the underlying node and then
// persists the entire store root before returning.
//
// Objects are cheap, identity-free views: every nested access constructs a
// fresh wrapper, and any number of wrappers over the same node observe and
// mutate the same state. Holding an Object across an external-change
// reconciliation is safe; the underlying node is updated in place.
type Object struct {
	store *Store
	node  map[string]any
}

// Get returns the value stored under key. A nested mapping is returned as a
// fresh *Object and a nested sequence as a fresh *Array, both bound to the
// same underlying node; scalars are returned unchanged. Missing keys return
// nil.
func (o *Object) Get(key string) any {
	var v any
	o.store.view(func() {
		v = o.node[key]
	})
	switch child := v.(type) {
	case map[string]any:
		return &Object{store: o.store, node: child}
	case []any:
		return &Array{
			store: o.store,
			elems: child,
			assign: func(ns []any) {
				o.node[key] = ns
			},
		}
	default:
		return v
	}
}

// Set stores value under key and persists the full store. value must be
// JSON-safe; mappings and sequences are stored by reference.
func (o *Object) Set(key string, value any) error {
	return o.store.mutate(func() error {
		o.node[key] = value
		return nil
	})
}

// Delete removes key from the node and persists the full store. Deleting a
// missing key still persists; absence is not distinguishable from a no-op
// write on this path.
func (o *Object) Delete(key string) error {
	return o.store.mutate(func() error {
		delete(o.node, key)
		return nil
	})
}

// Has reports whether key is present on the node.
func (o *Object) Has(key string) bool {
	var ok bool
	o.store.view(func() {
		_, ok = o.node[key]
	})
	return ok
}

// Keys returns the keys present on the node, in unspecified order.
func (o *Object) Keys() []string {
	var keys []string
	o.store.view(func() {
		keys = make([]string, 0, len(o.node))
		for k := range o.node {
			keys = append(keys, k)
		}
	})
	return keys
}

// Len returns the number of keys on the node.
func (o *Object) Len() int {
	var n int
	o.store.view(func() {
		n = len(o.node)
	})
	return n
}

// Raw returns the underlying mapping. Mutations made directly on it bypass
// persistence and synchronization.
func (o *Object) Raw() map[string]any {
	return o.node
}

// Array is a live view over a sequence node inside a store. Writes persist
// the full store root, like Object.
//
// Slice headers are values in Go, so growth and truncation are written back
// into the parent slot the Array was read from. An Array captured before a
// reconciliation that changed the sequence's length may be stale; re-read it
// from its parent.
type Array struct {
	store  *Store
	elems  []any
	assign func([]any)
}

// Get returns the element at index i, wrapping nested mappings and
// sequences the same way Object.Get does. Out-of-range indexes return nil.
func (a *Array) Get(i int) any {
	var v any
	var ok bool
	a.store.view(func() {
		if i >= 0 && i < len(a.elems) {
			v = a.elems[i]
			ok = true
		}
	})
	if !ok {
		return nil
	}
	switch child := v.(type) {
	case map[string]any:
		return &Object{store: a.store, node: child}
	case []any:
		return &Array{
			store: a.store,
			elems: child,
			assign: func(ns []any) {
				a.elems[i] = ns
			},
		}
	default:
		return v
	}
}

// Set stores value at index i and persists the full store.
func (a *Array) Set(i int, value any) error {
	return a.store.mutate(func() error {
		if i < 0 || i >= len(a.elems) {
			return ErrIndexOutOfRange
		}
		a.elems[i] = value
		return nil
	})
}

// Append adds values to the end of the sequence, writes the grown slice
// back into the parent slot, and persists the full store.
func (a *Array) Append(values ...any) error {
	return a.store.mutate(func() error {
		a.elems = append(a.elems, values...)
		a.assign(a.elems)
		return nil
	})
}

// Len returns the number of elements in the sequence.
func (a *Array) Len() int {
	var n int
	a.store.view(func() {
		n = len(a.elems)
	})
	return n
}

// Slice returns the underlying slice. Mutations made directly on it bypass
// persistence and synchronization.
func (a *Array) Slice() []any {
	return a.elems
}
