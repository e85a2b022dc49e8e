package nest

import (
	"fmt"
	"reflect"
)

// registry is the per-scope binding store. It is written only while the
// owning scope installs; afterwards it is read-only.
type registry struct {
	scopeID    string
	interfaces map[reflect.Type]reflect.Type // interface -> concrete
	instances  map[reflect.Type]any          // concrete -> instance
	order      []reflect.Type                // instance table order
	pending    []*descriptor                 // deferred bindings in registration order
	bound      map[reflect.Type]struct{}     // concrete types bound as instance or constructor
	names      map[string]reflect.Type
	graph      *DependencyGraph
}

func newRegistry(scopeID string) *registry {
	return &registry{
		scopeID:    scopeID,
		interfaces: make(map[reflect.Type]reflect.Type),
		instances:  make(map[reflect.Type]any),
		bound:      make(map[reflect.Type]struct{}),
		names:      make(map[string]reflect.Type),
		graph:      NewDependencyGraph(),
	}
}

// bindInterface maps an interface type to a concrete type.
func (r *registry) bindInterface(iface, concrete reflect.Type) error {
	if iface == nil || iface.Kind() != reflect.Interface {
		return NewInvalidBindingError(r.scopeID, iface, "not an interface")
	}

	if concrete == nil || concrete.Kind() == reflect.Interface {
		return NewInvalidBindingError(r.scopeID, iface,
			fmt.Sprintf("%s is not a concrete type", typeName(concrete)))
	}

	if !concrete.Implements(iface) {
		return NewInvalidBindingError(r.scopeID, iface,
			fmt.Sprintf("%s does not implement it", concrete))
	}

	if existing, ok := r.interfaces[iface]; ok {
		return NewInvalidBindingError(r.scopeID, iface,
			fmt.Sprintf("already bound to %s", existing))
	}

	r.interfaces[iface] = concrete

	return nil
}

// bindInstance stores a pre-built instance under its concrete type.
func (r *registry) bindInstance(concrete reflect.Type, instance any) error {
	if err := r.claim(concrete); err != nil {
		return err
	}

	r.storeInstance(concrete, instance)

	return nil
}

// bindConstructed queues a descriptor into the pending set.
func (r *registry) bindConstructed(d *descriptor) error {
	if len(d.members) > 0 {
		names := make([]string, len(d.members))
		for i, m := range d.members {
			names[i] = m.name
		}

		return NewMemberInjectionError(r.scopeID, d.typ, names)
	}

	if err := r.claim(d.typ); err != nil {
		return err
	}

	r.pending = append(r.pending, d)
	r.graph.AddNode(d.typ, d.deps)

	return nil
}

// bindName attaches a name alias to a type.
func (r *registry) bindName(typ reflect.Type, name string) error {
	if name == "" {
		return NewInvalidBindingError(r.scopeID, typ, "name cannot be empty")
	}

	if existing, ok := r.names[name]; ok {
		return NewInvalidBindingError(r.scopeID, typ,
			fmt.Sprintf("name '%s' already bound to %s", name, existing))
	}

	r.names[name] = typ

	return nil
}

// claim reserves a concrete type, rejecting interfaces and duplicates.
func (r *registry) claim(concrete reflect.Type) error {
	if concrete == nil {
		return NewInvalidBindingError(r.scopeID, concrete, "nil type")
	}

	if concrete.Kind() == reflect.Interface {
		return NewInvalidBindingError(r.scopeID, concrete, "interfaces must be bound to a concrete type")
	}

	if _, ok := r.bound[concrete]; ok {
		return NewInvalidBindingError(r.scopeID, concrete, "already bound")
	}

	r.bound[concrete] = struct{}{}

	return nil
}

// storeInstance appends to the instance table. Entries are never replaced.
func (r *registry) storeInstance(concrete reflect.Type, instance any) {
	if _, exists := r.instances[concrete]; exists {
		return
	}

	r.instances[concrete] = instance
	r.order = append(r.order, concrete)
}

func (r *registry) interfaceBinding(iface reflect.Type) (reflect.Type, bool) {
	concrete, ok := r.interfaces[iface]

	return concrete, ok
}

func (r *registry) instance(concrete reflect.Type) (any, bool) {
	instance, ok := r.instances[concrete]

	return instance, ok
}

func (r *registry) named(name string) (reflect.Type, bool) {
	typ, ok := r.names[name]

	return typ, ok
}

// table returns the instances in table order.
func (r *registry) table() []any {
	out := make([]any, len(r.order))
	for i, t := range r.order {
		out[i] = r.instances[t]
	}

	return out
}
