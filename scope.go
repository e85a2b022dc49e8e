package nest

import (
	"reflect"
	"sync"

	"github.com/xraph/go-utils/log"
)

// Scope is a node in the tree of binding registries. Lookups that miss
// locally fall back to the parent; a scope with no parent is the root.
//
// A scope is populated once while it installs and is read-only afterwards.
// It never writes into its ancestors.
type Scope struct {
	id          string
	parent      *Scope
	registry    *registry
	settings    SettingsProvider
	logger      log.Logger
	observer    Observer
	lifecycle   *lifecycle
	constructed []reflect.Type
	tornDown    bool
	mu          sync.RWMutex
	lifeMu      sync.Mutex // serializes Start, Stop and teardown
}

// newScope creates an empty scope.
func newScope(id string, parent *Scope, settings SettingsProvider, logger log.Logger, observer Observer) *Scope {
	if settings == nil {
		settings = noSettings{}
	}

	return &Scope{
		id:        id,
		parent:    parent,
		registry:  newRegistry(id),
		settings:  settings,
		logger:    logger.With(log.String("scope", id)),
		observer:  observer,
		lifecycle: &lifecycle{},
	}
}

// ID returns the scope identifier.
func (s *Scope) ID() string {
	return s.id
}

// Parent returns the parent scope, or nil for the root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// IsRoot reports whether the scope has no parent.
func (s *Scope) IsRoot() bool {
	return s.parent == nil
}

// IsTornDown reports whether the scope has been torn down.
func (s *Scope) IsTornDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tornDown
}

// ConcreteType returns the concrete type an interface is bound to, searching
// this scope and then its ancestors. Non-interface types are returned as is.
func (s *Scope) ConcreteType(typ reflect.Type) (reflect.Type, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}

	concrete, ok := s.concreteType(typ)
	if !ok {
		return nil, NewMissingInterfaceBindingError(s.id, typ)
	}

	return concrete, nil
}

// Instance returns the instance for a type. Interfaces are first mapped to
// their concrete type; then settings, the local instance table and finally
// the ancestors are consulted.
func (s *Scope) Instance(typ reflect.Type) (any, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}

	concrete, ok := s.concreteType(typ)
	if !ok {
		return nil, NewMissingInterfaceBindingError(s.id, typ)
	}

	if instance, ok := s.lookup(concrete); ok {
		return instance, nil
	}

	return nil, NewMissingBindingError(s.id, concrete)
}

// Named returns the instance bound to a name alias in this scope or an ancestor.
// The aliased type is resolved from this scope, so local interface bindings win.
func (s *Scope) Named(name string) (any, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}

	for cur := s; cur != nil; cur = cur.parent {
		if typ, ok := cur.registry.named(name); ok {
			return s.Instance(typ)
		}
	}

	return nil, NewMissingNamedBindingError(s.id, name)
}

// HasSetting reports whether this scope's settings provider has the type.
func (s *Scope) HasSetting(typ reflect.Type) bool {
	return s.settings.Has(typ)
}

// Setting returns the settings value for the type, if present.
func (s *Scope) Setting(typ reflect.Type) (any, bool) {
	if !s.settings.Has(typ) {
		return nil, false
	}

	return s.settings.Get(typ), true
}

// Instances returns the local instance table in insertion order: instance
// bindings first, then constructed types in construction order.
func (s *Scope) Instances() []any {
	return s.registry.table()
}

// Constructed returns the types this scope constructed, in construction order.
func (s *Scope) Constructed() []reflect.Type {
	out := make([]reflect.Type, len(s.constructed))
	copy(out, s.constructed)

	return out
}

// Graph returns the scope's dependency graph.
func (s *Scope) Graph() *DependencyGraph {
	return s.registry.graph
}

// concreteType maps an interface through the scope chain. The root is the
// base case: it never consults a parent.
func (s *Scope) concreteType(typ reflect.Type) (reflect.Type, bool) {
	if typ == nil {
		return nil, false
	}

	if typ.Kind() != reflect.Interface {
		return typ, true
	}

	if concrete, ok := s.registry.interfaceBinding(typ); ok {
		return concrete, true
	}

	if s.parent == nil {
		return nil, false
	}

	return s.parent.concreteType(typ)
}

// lookup finds an instance of a concrete type in settings, the local table,
// then the parent chain.
func (s *Scope) lookup(concrete reflect.Type) (any, bool) {
	if s.settings.Has(concrete) {
		return s.settings.Get(concrete), true
	}

	if instance, ok := s.registry.instance(concrete); ok {
		return instance, true
	}

	if s.parent == nil {
		return nil, false
	}

	return s.parent.lookup(concrete)
}

func (s *Scope) checkAlive() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tornDown {
		return NewScopeTornDownError(s.id)
	}

	return nil
}
