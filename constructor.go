package nest

import (
	"errors"
	"fmt"
	"reflect"
)

// injectTag marks a struct field as an injected member.
const injectTag = "inject"

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// errLiterals marks constructor errors caused by the literal arguments.
var errLiterals = errors.New("literal arguments")

// descriptor is the static binding record built once per constructed type:
// the constructor, the dependency types filled by resolution, the literal
// arguments filling the trailing parameters and any injected members.
type descriptor struct {
	typ      reflect.Type
	fn       reflect.Value
	deps     []reflect.Type
	literals []reflect.Value
	members  []memberInfo
	hasError bool
}

// memberInfo describes a struct field requesting injection.
type memberInfo struct {
	name string
}

// arity returns the number of literal arguments.
func (d *descriptor) arity() int {
	return len(d.literals)
}

// analyzeConstructor inspects a constructor function and splits its parameters
// into resolved dependencies and trailing literal arguments.
//
// A valid constructor is a non-variadic func returning C or (C, error) where
// C is not an interface type.
func analyzeConstructor(ctor any, literals []any) (*descriptor, error) {
	if ctor == nil {
		return nil, errors.New("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(ctor)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %s", fnType)
	}

	if fnType.IsVariadic() {
		return nil, errors.New("variadic constructors are not supported")
	}

	d := &descriptor{fn: fnValue}

	switch fnType.NumOut() {
	case 1:
		if fnType.Out(0) == errorType {
			return nil, errors.New("constructor must return a value")
		}
	case 2:
		if fnType.Out(1) != errorType {
			return nil, errors.New("error must be the last return value")
		}

		d.hasError = true
	default:
		return nil, errors.New("constructor must return a value and optionally an error")
	}

	d.typ = fnType.Out(0)
	if d.typ.Kind() == reflect.Interface {
		return nil, fmt.Errorf("constructor must return a concrete type, got interface %s", d.typ)
	}

	if len(literals) > fnType.NumIn() {
		return nil, fmt.Errorf("%w: %d for a constructor with %d parameters",
			errLiterals, len(literals), fnType.NumIn())
	}

	// Literals always fill the trailing parameters.
	split := fnType.NumIn() - len(literals)

	for i := range split {
		d.deps = append(d.deps, fnType.In(i))
	}

	for i, lit := range literals {
		paramType := fnType.In(split + i)

		value, err := literalValue(lit, paramType)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %s", errLiterals, i, err.Error())
		}

		d.literals = append(d.literals, value)
	}

	d.members = injectedMembers(d.typ)

	return d, nil
}

// zeroConstructor builds a descriptor that allocates a new T via reflect.New.
// T must be a pointer to a struct.
func zeroConstructor(typ reflect.Type) (*descriptor, error) {
	if typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a pointer to a struct", typ)
	}

	elem := typ.Elem()
	fn := reflect.MakeFunc(reflect.FuncOf(nil, []reflect.Type{typ}, false), func([]reflect.Value) []reflect.Value {
		return []reflect.Value{reflect.New(elem)}
	})

	return &descriptor{
		typ:     typ,
		fn:      fn,
		members: injectedMembers(typ),
	}, nil
}

// literalValue converts a literal argument into a value for the parameter type.
func literalValue(lit any, paramType reflect.Type) (reflect.Value, error) {
	if lit == nil {
		switch paramType.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(paramType), nil
		default:
			return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", paramType)
		}
	}

	value := reflect.ValueOf(lit)
	if !value.Type().AssignableTo(paramType) {
		return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", value.Type(), paramType)
	}

	return value, nil
}

// injectedMembers lists the exported struct fields tagged for injection.
func injectedMembers(t reflect.Type) []memberInfo {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil
	}

	var members []memberInfo

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if _, ok := field.Tag.Lookup(injectTag); !ok {
			continue
		}

		members = append(members, memberInfo{name: field.Name})
	}

	return members
}

// construct invokes the constructor with resolved dependencies followed by the literals.
func (d *descriptor) construct(deps []reflect.Value) (any, error) {
	args := make([]reflect.Value, 0, len(deps)+len(d.literals))
	args = append(args, deps...)
	args = append(args, d.literals...)

	out := d.fn.Call(args)

	if d.hasError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}

	return out[0].Interface(), nil
}
