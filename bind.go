package nest

import (
	"errors"
	"reflect"

	"github.com/xraph/go-utils/log"
)

// Installer declares the bindings of a scope.
//
// Example:
//
//	type GameInstaller struct{}
//
//	func (GameInstaller) InstallBindings(b *nest.Binder) error {
//	    if err := nest.BindAs[Logger](b, NewConsoleLogger); err != nil {
//	        return err
//	    }
//	    return nest.Bind(b, NewScoreService, 100)
//	}
type Installer interface {
	InstallBindings(b *Binder) error
}

// InstallerFunc adapts a function to Installer.
type InstallerFunc func(b *Binder) error

// InstallBindings implements Installer.
func (f InstallerFunc) InstallBindings(b *Binder) error {
	return f(b)
}

// Binder is handed to installers while a scope installs. Every bind call
// writes only into that scope's registry.
type Binder struct {
	registry  *registry
	arguments []any
	logger    log.Logger
}

// ScopeID returns the id of the scope being installed.
func (b *Binder) ScopeID() string {
	return b.registry.scopeID
}

// Arguments returns the arguments passed to the scope at install time.
func (b *Binder) Arguments() []any {
	return b.arguments
}

// BindInterface binds interface I to concrete type C in the scope.
// Binding the same interface twice in one scope is an error.
func BindInterface[I, C any](b *Binder) error {
	iface := reflect.TypeFor[I]()
	concrete := reflect.TypeFor[C]()

	if err := b.registry.bindInterface(iface, concrete); err != nil {
		return err
	}

	b.logger.Debug("bind interface",
		log.String("scope", b.ScopeID()),
		log.String("interface", iface.String()),
		log.String("type", concrete.String()),
	)

	return nil
}

// BindInstance registers a pre-built instance. No construction happens for it.
// When T is an interface the instance is stored under its dynamic type and T
// is bound to that type.
func BindInstance[T any](b *Binder, instance T) error {
	declared := reflect.TypeFor[T]()

	value := any(instance)
	if value == nil || isNilValue(reflect.ValueOf(value)) {
		return NewInvalidBindingError(b.ScopeID(), declared, "instance cannot be nil")
	}

	concrete := reflect.TypeOf(value)

	if err := b.registry.bindInstance(concrete, value); err != nil {
		return err
	}

	if declared.Kind() == reflect.Interface {
		if err := b.registry.bindInterface(declared, concrete); err != nil {
			return err
		}
	}

	b.logger.Debug("bind instance",
		log.String("scope", b.ScopeID()),
		log.String("type", concrete.String()),
	)

	return nil
}

// Bind registers a constructor. Its leading parameters are resolved from the
// scope chain; literals fill the trailing parameters in order.
//
// Example:
//
//	func NewSpawner(pool *Pool, rate int) *Spawner
//
//	nest.Bind(b, NewSpawner, 42) // pool is injected, rate is 42
func Bind(b *Binder, ctor any, literals ...any) error {
	_, err := bindConstructor(b, ctor, literals)

	return err
}

// BindAs registers a constructor and binds interface I to its result type.
func BindAs[I any](b *Binder, ctor any, literals ...any) error {
	d, err := bindConstructor(b, ctor, literals)
	if err != nil {
		return err
	}

	iface := reflect.TypeFor[I]()
	if err := b.registry.bindInterface(iface, d.typ); err != nil {
		return err
	}

	b.logger.Debug("bind interface",
		log.String("scope", b.ScopeID()),
		log.String("interface", iface.String()),
		log.String("type", d.typ.String()),
	)

	return nil
}

// BindType registers T for construction through its zero value. T must be a
// pointer to a struct.
func BindType[T any](b *Binder) error {
	typ := reflect.TypeFor[T]()

	d, err := zeroConstructor(typ)
	if err != nil {
		return NewNoConstructorError(b.ScopeID(), typ, err.Error())
	}

	return b.queue(d)
}

// BindName attaches a name alias to T for name-based lookup.
func BindName[T any](b *Binder, name string) error {
	return b.registry.bindName(reflect.TypeFor[T](), name)
}

func bindConstructor(b *Binder, ctor any, literals []any) (*descriptor, error) {
	d, err := analyzeConstructor(ctor, literals)
	if errors.Is(err, errLiterals) {
		return nil, NewInvalidBindingError(b.ScopeID(), constructorResult(ctor), err.Error())
	}

	if err != nil {
		return nil, NewNoConstructorError(b.ScopeID(), constructorResult(ctor), err.Error())
	}

	if err := b.queue(d); err != nil {
		return nil, err
	}

	return d, nil
}

func (b *Binder) queue(d *descriptor) error {
	if err := b.registry.bindConstructed(d); err != nil {
		return err
	}

	b.logger.Debug("bind constructor",
		log.String("scope", b.ScopeID()),
		log.String("type", d.typ.String()),
		log.Int("dependencies", len(d.deps)),
		log.Int("literals", d.arity()),
	)

	return nil
}

// constructorResult best-effort names the type a constructor would build.
func constructorResult(ctor any) reflect.Type {
	if ctor == nil {
		return nil
	}

	t := reflect.TypeOf(ctor)
	if t.Kind() == reflect.Func && t.NumOut() > 0 {
		return t.Out(0)
	}

	return t
}
