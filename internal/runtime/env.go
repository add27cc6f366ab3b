package runtime

import (
	"sort"

	"ypsh-lang/internal/ast"
)

// Environment represents a lexical scope frame with a parent chain.
// The root frame of a chain is the process-wide global scope.
type Environment struct {
	values  map[string]Value
	consts  map[string]bool          // names declared with let
	intents map[string]ast.ScopeMode // pending global/local scope intents
	parent  *Environment
	root    bool
}

// NewGlobalEnvironment creates a root (global) environment.
func NewGlobalEnvironment() *Environment {
	env := NewEnvironment(nil)
	env.root = true
	return env
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values:  make(map[string]Value),
		consts:  make(map[string]bool),
		intents: make(map[string]ast.ScopeMode),
		parent:  parent,
	}
}

// Root walks to the global frame of the chain.
func (e *Environment) Root() *Environment {
	env := e
	for env.parent != nil {
		env = env.parent
	}
	return env
}

// Define binds a name in the current frame, honoring a pending global intent
// for the name. Redeclaration shadows or replaces the previous binding.
func (e *Environment) Define(name string, value Value, isLet bool) {
	target := e
	if e.intents[name] == ast.ScopeGlobal {
		target = e.Root()
	}
	target.values[name] = value
	if isLet {
		target.consts[name] = true
	} else {
		delete(target.consts, name)
	}
}

// DefineGlobal binds a name in the root frame regardless of nesting.
func (e *Environment) DefineGlobal(name string, value Value, isLet bool) {
	root := e.Root()
	root.values[name] = value
	if isLet {
		root.consts[name] = true
	} else {
		delete(root.consts, name)
	}
}

// DefineLocal binds a name in the current frame, ignoring intents.
func (e *Environment) DefineLocal(name string, value Value, isLet bool) {
	e.values[name] = value
	if isLet {
		e.consts[name] = true
	} else {
		delete(e.consts, name)
	}
}

// SetIntent records a scope intent for later declarations of the name.
func (e *Environment) SetIntent(name string, mode ast.ScopeMode) {
	e.intents[name] = mode
}

// Get looks up a name by walking the scope chain outward.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if val, exists := env.values[name]; exists {
			return val, true
		}
	}
	return nil, false
}

// Set assigns to an existing binding, walking the chain outward. An unbound
// name is auto-declared in the current frame (or the root frame under a
// global intent). Returns false when the target binding is immutable.
func (e *Environment) Set(name string, value Value) bool {
	for env := e; env != nil; env = env.parent {
		if _, exists := env.values[name]; exists {
			if env.consts[name] {
				return false
			}
			env.values[name] = value
			return true
		}
	}
	e.Define(name, value, false)
	return true
}

// Names returns the names bound directly in this frame, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
