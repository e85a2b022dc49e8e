package nest

import "reflect"

// Observer receives informational events while scopes install.
// Observers cannot influence resolution; a scope installs identically with
// or without them.
type Observer interface {
	// ScopeStarted is called before the scope's installers run.
	ScopeStarted(scopeID string)

	// Constructed is called after a type is constructed, with the concrete
	// types its dependencies resolved to.
	Constructed(scopeID string, typ reflect.Type, deps []reflect.Type)

	// ScopeInstalled is called once the scope is fully installed.
	ScopeInstalled(scopeID string)
}

// observerChain fans events out to every observer in the order they were added.
type observerChain struct {
	observers []Observer
}

func newObserverChain() *observerChain {
	return &observerChain{
		observers: make([]Observer, 0),
	}
}

func (c *observerChain) add(o Observer) {
	if o != nil {
		c.observers = append(c.observers, o)
	}
}

func (c *observerChain) ScopeStarted(scopeID string) {
	for _, o := range c.observers {
		o.ScopeStarted(scopeID)
	}
}

func (c *observerChain) Constructed(scopeID string, typ reflect.Type, deps []reflect.Type) {
	for _, o := range c.observers {
		o.Constructed(scopeID, typ, deps)
	}
}

func (c *observerChain) ScopeInstalled(scopeID string) {
	for _, o := range c.observers {
		o.ScopeInstalled(scopeID)
	}
}

// FuncObserver wraps functions as an Observer. Nil functions are skipped.
type FuncObserver struct {
	ScopeStartedFunc   func(scopeID string)
	ConstructedFunc    func(scopeID string, typ reflect.Type, deps []reflect.Type)
	ScopeInstalledFunc func(scopeID string)
}

// ScopeStarted implements Observer.
func (f *FuncObserver) ScopeStarted(scopeID string) {
	if f.ScopeStartedFunc != nil {
		f.ScopeStartedFunc(scopeID)
	}
}

// Constructed implements Observer.
func (f *FuncObserver) Constructed(scopeID string, typ reflect.Type, deps []reflect.Type) {
	if f.ConstructedFunc != nil {
		f.ConstructedFunc(scopeID, typ, deps)
	}
}

// ScopeInstalled implements Observer.
func (f *FuncObserver) ScopeInstalled(scopeID string) {
	if f.ScopeInstalledFunc != nil {
		f.ScopeInstalledFunc(scopeID)
	}
}
