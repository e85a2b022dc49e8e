package nest

import (
	"fmt"
	"reflect"
)

// Resolve returns the instance of T visible from the scope, with type safety.
func Resolve[T any](s *Scope) (T, error) {
	var zero T

	want := reflect.TypeFor[T]()

	instance, err := s.Instance(want)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, NewTypeMismatchError(s.id, want, instance)
	}

	return typed, nil
}

// Must resolves or panics - use only during startup.
func Must[T any](s *Scope) T {
	instance, err := Resolve[T](s)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", reflect.TypeFor[T](), err))
	}

	return instance
}

// ConcreteTypeOf returns the concrete type interface I is bound to.
func ConcreteTypeOf[I any](s *Scope) (reflect.Type, error) {
	return s.ConcreteType(reflect.TypeFor[I]())
}

// SettingOf returns the settings value of type T from the scope's provider.
// It does not consult ancestors.
func SettingOf[T any](s *Scope) (T, bool) {
	var zero T

	value, ok := s.Setting(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}

	typed, ok := value.(T)
	if !ok {
		return zero, false
	}

	return typed, true
}

// ResolveNamed returns the instance bound to name, with type safety.
func ResolveNamed[T any](s *Scope, name string) (T, error) {
	var zero T

	instance, err := s.Named(name)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, NewTypeMismatchError(s.id, reflect.TypeFor[T](), instance)
	}

	return typed, nil
}

// InstancesOf returns the local instances assignable to T in instance table order.
//
// Example:
//
//	closers := nest.InstancesOf[io.Closer](scope)
func InstancesOf[T any](s *Scope) []T {
	var out []T

	for _, instance := range s.registry.table() {
		if typed, ok := instance.(T); ok {
			out = append(out, typed)
		}
	}

	return out
}
