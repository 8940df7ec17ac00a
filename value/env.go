package value

// Env is an insertion-ordered set of named arguments for one evaluation.
// An environment never holds absent values; callers drop those before
// binding.
type Env struct {
	names []string
	vals  map[string]Value
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{vals: make(map[string]Value)}
}

// Set binds a name. New names append to the order; existing names keep
// their position.
func (e *Env) Set(name string, v Value) {
	if _, ok := e.vals[name]; !ok {
		e.names = append(e.names, name)
	}
	e.vals[name] = v
}

// Get returns the value bound to name.
func (e *Env) Get(name string) (Value, bool) {
	v, ok := e.vals[name]
	return v, ok
}

// Has reports whether name is bound.
func (e *Env) Has(name string) bool {
	_, ok := e.vals[name]
	return ok
}

// Names returns the bound names in insertion order. The slice is shared;
// callers must not modify it.
func (e *Env) Names() []string {
	return e.names
}

// Len returns the number of bindings.
func (e *Env) Len() int {
	return len(e.names)
}

// Clone returns an independent copy with the same order and bindings.
func (e *Env) Clone() *Env {
	c := &Env{
		names: make([]string, len(e.names)),
		vals:  make(map[string]Value, len(e.vals)),
	}
	copy(c.names, e.names)
	for name, v := range e.vals {
		c.vals[name] = v
	}
	return c
}
