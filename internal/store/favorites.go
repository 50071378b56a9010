package store

// Favorites is an unbounded set of location names. Listing order follows
// insertion but carries no meaning.
type Favorites struct {
	names []string
	index map[string]struct{}
}

// NewFavorites creates an empty set.
func NewFavorites() *Favorites {
	return &Favorites{index: make(map[string]struct{})}
}

// Toggle adds name when absent and removes it when present. It returns the
// membership after the call.
func (f *Favorites) Toggle(name string) bool {
	if _, ok := f.index[name]; !ok {
		f.index[name] = struct{}{}
		f.names = append(f.names, name)
		return true
	}

	delete(f.index, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i], f.names[i+1:]...)
			break
		}
	}
	return false
}

// Contains reports membership of name.
func (f *Favorites) Contains(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Names returns a copy of the members.
func (f *Favorites) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}
