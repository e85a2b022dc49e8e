package nest

import (
	"fmt"
	"reflect"
)

// SettingsProvider is a read-only, type-keyed source of externally supplied
// configuration objects. A scope consults it before its own bindings, and
// types it provides are never constructed by the scope.
type SettingsProvider interface {
	Has(typ reflect.Type) bool
	Get(typ reflect.Type) any
}

// Settings is a map-backed SettingsProvider keyed by each value's dynamic type.
type Settings struct {
	values map[reflect.Type]any
	order  []reflect.Type
}

// NewSettings creates a Settings holding the given values.
// It panics if two values share a type; use Add to handle that as an error.
func NewSettings(values ...any) *Settings {
	s := &Settings{values: make(map[reflect.Type]any)}

	for _, v := range values {
		if err := s.Add(v); err != nil {
			panic(err)
		}
	}

	return s
}

// SettingsFrom builds Settings from the exported fields of a holder struct,
// one entry per field keyed by the field's type. Nil fields are skipped.
//
// Example:
//
//	type GameSettings struct {
//	    Audio  *AudioSettings
//	    Player *PlayerSettings
//	}
//
//	settings, err := nest.SettingsFrom(&GameSettings{...})
func SettingsFrom(holder any) (*Settings, error) {
	v := reflect.ValueOf(holder)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("settings holder cannot be nil")
		}

		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("settings holder must be a struct, got %s", v.Kind())
	}

	s := &Settings{values: make(map[reflect.Type]any)}
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		fv := v.Field(i)
		if isNilValue(fv) {
			continue
		}

		if err := s.Add(fv.Interface()); err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return s, nil
}

// Add registers a value under its dynamic type.
func (s *Settings) Add(value any) error {
	if value == nil {
		return NewInvalidBindingError("", nil, "settings value cannot be nil")
	}

	typ := reflect.TypeOf(value)
	if _, exists := s.values[typ]; exists {
		return NewInvalidBindingError("", typ, "settings already contain this type")
	}

	s.values[typ] = value
	s.order = append(s.order, typ)

	return nil
}

// Has implements SettingsProvider.
func (s *Settings) Has(typ reflect.Type) bool {
	_, ok := s.values[typ]

	return ok
}

// Get implements SettingsProvider.
func (s *Settings) Get(typ reflect.Type) any {
	return s.values[typ]
}

// Types returns the registered types in the order they were added.
func (s *Settings) Types() []reflect.Type {
	out := make([]reflect.Type, len(s.order))
	copy(out, s.order)

	return out
}

// noSettings is used when a scope has no provider.
type noSettings struct{}

func (noSettings) Has(reflect.Type) bool { return false }
func (noSettings) Get(reflect.Type) any  { return nil }

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
