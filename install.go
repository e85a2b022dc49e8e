package nest

import (
	"reflect"

	"github.com/xraph/go-utils/di"
	"github.com/xraph/go-utils/log"
)

// instantiate drains the pending set into the instance table.
//
// Each pass scans the pending types in registration order and constructs the
// first one whose dependencies are no longer pending. A pass that constructs
// nothing means the rest of the graph is cyclic or unsatisfiable.
func (s *Scope) instantiate() error {
	pending := make([]*descriptor, 0, len(s.registry.pending))
	waiting := make(map[reflect.Type]struct{}, len(s.registry.pending))

	for _, d := range s.registry.pending {
		// Settings take precedence and are never constructed.
		if s.settings.Has(d.typ) {
			s.logger.Debug("construction skipped, type provided by settings",
				log.String("type", d.typ.String()))

			continue
		}

		pending = append(pending, d)
		waiting[d.typ] = struct{}{}
	}

	for len(pending) > 0 {
		next := -1

		for i, d := range pending {
			ok, err := s.resolvable(d, waiting)
			if err != nil {
				return err
			}

			if ok {
				next = i

				break
			}
		}

		if next < 0 {
			stuck := make([]reflect.Type, len(pending))
			for i, d := range pending {
				stuck[i] = d.typ
			}

			return NewUnresolvedGraphError(s.id, stuck)
		}

		d := pending[next]
		if err := s.construct(d); err != nil {
			return err
		}

		pending = append(pending[:next], pending[next+1:]...)
		delete(waiting, d.typ)
	}

	return nil
}

// resolvable reports whether none of the descriptor's dependencies is still pending.
func (s *Scope) resolvable(d *descriptor, waiting map[reflect.Type]struct{}) (bool, error) {
	for _, dep := range d.deps {
		concrete, ok := s.concreteType(dep)
		if !ok {
			return false, NewMissingInterfaceBindingError(s.id, dep)
		}

		if _, blocked := waiting[concrete]; blocked {
			return false, nil
		}
	}

	return true, nil
}

// construct resolves the dependencies of d, invokes its constructor and moves
// the result into the instance table.
func (s *Scope) construct(d *descriptor) error {
	args := make([]reflect.Value, len(d.deps))
	resolved := make([]reflect.Type, len(d.deps))

	for i, dep := range d.deps {
		concrete, ok := s.concreteType(dep)
		if !ok {
			return NewMissingInterfaceBindingError(s.id, dep)
		}

		instance, ok := s.lookup(concrete)
		if !ok {
			return NewMissingBindingError(s.id, concrete)
		}

		value := reflect.ValueOf(instance)
		if !value.IsValid() || !value.Type().AssignableTo(dep) {
			return NewTypeMismatchError(s.id, dep, instance)
		}

		args[i] = value
		resolved[i] = concrete
	}

	instance, err := d.construct(args)
	if err != nil {
		return NewConstructionError(s.id, d.typ, err)
	}

	s.registry.storeInstance(d.typ, instance)
	s.registry.graph.recordEdges(d.typ, resolved)
	s.constructed = append(s.constructed, d.typ)

	s.logger.Debug("installed",
		log.String("type", d.typ.String()),
		log.Int("dependencies", len(resolved)),
	)

	s.observer.Constructed(s.id, d.typ, resolved)

	return nil
}

// rollback releases the instances this scope constructed, newest first.
// Instance bindings belong to the caller and are left alone.
func (s *Scope) rollback() {
	for i := len(s.constructed) - 1; i >= 0; i-- {
		instance, _ := s.registry.instance(s.constructed[i])

		disposable, ok := instance.(di.Disposable)
		if !ok {
			continue
		}

		if err := disposable.Dispose(); err != nil {
			s.logger.Warn("dispose during rollback failed",
				log.String("type", s.constructed[i].String()),
				log.Error(err),
			)
		}
	}

	s.mu.Lock()
	s.tornDown = true
	s.mu.Unlock()
}
