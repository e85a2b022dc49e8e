package nest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/go-utils/log"
)

// RootScopeID is the id InstallRoot gives the root scope.
const RootScopeID = "root"

// Directory owns a tree of scopes and the registry of their ids. It replaces
// a process-wide scope registry: whoever orchestrates scope creation holds
// the directory and passes it around.
type Directory struct {
	scopes     map[string]*Scope
	order      []string
	installing map[string]struct{}
	logger     log.Logger
	observer   *observerChain
	mu         sync.RWMutex
}

// NewDirectory creates an empty scope directory.
func NewDirectory(opts ...Option) *Directory {
	config := directoryConfig{logger: log.NewNoopLogger()}
	for _, opt := range opts {
		opt(&config)
	}

	observer := newObserverChain()
	for _, o := range config.observers {
		observer.add(o)
	}

	return &Directory{
		scopes:     make(map[string]*Scope),
		installing: make(map[string]struct{}),
		logger:     config.logger,
		observer:   observer,
	}
}

// Install creates a scope, runs its installers, constructs every deferred
// binding in dependency order and registers the scope under id.
//
// The parent must already be installed in this directory; nil makes the
// scope a root. On any error nothing is registered and the instances the
// scope constructed are released.
func (d *Directory) Install(id string, parent *Scope, installers []Installer, opts ...InstallOption) (*Scope, error) {
	if err := d.reserve(id, parent); err != nil {
		return nil, err
	}

	scope, err := d.install(id, parent, installers, mergeInstallOptions(opts))

	d.mu.Lock()
	delete(d.installing, id)

	if err == nil {
		d.scopes[id] = scope
		d.order = append(d.order, id)
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Error("scope installation failed",
			log.String("scope", id),
			log.Error(err),
		)

		return nil, err
	}

	d.observer.ScopeInstalled(id)

	return scope, nil
}

// InstallRoot installs the root scope under RootScopeID.
func (d *Directory) InstallRoot(installers []Installer, opts ...InstallOption) (*Scope, error) {
	return d.Install(RootScopeID, nil, installers, opts...)
}

// InstallChild installs a scope whose parent is looked up by id. An empty
// parent id selects the root scope.
func (d *Directory) InstallChild(id, parentID string, installers []Installer, opts ...InstallOption) (*Scope, error) {
	if parentID == "" {
		parentID = RootScopeID
	}

	parent, ok := d.Scope(parentID)
	if !ok {
		return nil, NewMissingScopeError(parentID)
	}

	return d.Install(id, parent, installers, opts...)
}

// Scope returns an installed scope by id.
func (d *Directory) Scope(id string) (*Scope, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	scope, ok := d.scopes[id]

	return scope, ok
}

// Root returns the scope installed under RootScopeID.
func (d *Directory) Root() (*Scope, bool) {
	return d.Scope(RootScopeID)
}

// Scopes returns the installed scope ids in installation order.
func (d *Directory) Scopes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, len(d.order))
	copy(out, d.order)

	return out
}

// Teardown tears down a scope and all of its descendants, descendants
// first, and releases their ids.
func (d *Directory) Teardown(ctx context.Context, id string) error {
	d.mu.Lock()

	target, ok := d.scopes[id]
	if !ok {
		d.mu.Unlock()

		return NewMissingScopeError(id)
	}

	var victims []*Scope

	for i := len(d.order) - 1; i >= 0; i-- {
		scope := d.scopes[d.order[i]]
		if isDescendant(scope, target) {
			victims = append(victims, scope)
		}
	}

	d.remove(victims)
	d.mu.Unlock()

	return d.teardownAll(ctx, victims)
}

// Close tears down every scope in reverse installation order.
func (d *Directory) Close(ctx context.Context) error {
	d.mu.Lock()

	victims := make([]*Scope, 0, len(d.order))
	for i := len(d.order) - 1; i >= 0; i-- {
		victims = append(victims, d.scopes[d.order[i]])
	}

	d.remove(victims)
	d.mu.Unlock()

	return d.teardownAll(ctx, victims)
}

func (d *Directory) reserve(id string, parent *Scope) error {
	if id == "" {
		return ErrInvalidScopeID
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.scopes[id]; exists {
		return NewDuplicateScopeIDError(id)
	}

	if _, exists := d.installing[id]; exists {
		return NewDuplicateScopeIDError(id)
	}

	if parent != nil {
		if registered, ok := d.scopes[parent.id]; !ok || registered != parent {
			return NewMissingScopeError(parent.id)
		}

		if parent.IsTornDown() {
			return NewScopeTornDownError(parent.id)
		}
	}

	d.installing[id] = struct{}{}

	return nil
}

func (d *Directory) install(id string, parent *Scope, installers []Installer, config installConfig) (*Scope, error) {
	scope := newScope(id, parent, config.settings, d.logger, d.observer)

	scope.logger.Info("starting scope")
	d.observer.ScopeStarted(id)

	binder := &Binder{
		registry:  scope.registry,
		arguments: config.arguments,
		logger:    scope.logger,
	}

	for _, installer := range installers {
		if installer == nil {
			continue
		}

		if err := installer.InstallBindings(binder); err != nil {
			return nil, err
		}
	}

	if err := scope.instantiate(); err != nil {
		scope.rollback()

		return nil, err
	}

	scope.lifecycle = collectLifecycle(scope.registry.table())

	if err := scope.initialize(); err != nil {
		scope.rollback()

		return nil, err
	}

	scope.logger.Info("scope installed",
		log.Int("instances", len(scope.registry.order)),
		log.Int("constructed", len(scope.constructed)),
	)

	return scope, nil
}

// remove drops scopes from the directory. Callers hold d.mu.
func (d *Directory) remove(victims []*Scope) {
	for _, scope := range victims {
		delete(d.scopes, scope.id)
	}

	kept := d.order[:0]
	for _, id := range d.order {
		if _, ok := d.scopes[id]; ok {
			kept = append(kept, id)
		}
	}

	d.order = kept
}

func (d *Directory) teardownAll(ctx context.Context, victims []*Scope) error {
	var errs []error

	for _, scope := range victims {
		if err := scope.teardown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("teardown %s: %w", scope.id, err))
		}
	}

	return errors.Join(errs...)
}

// isDescendant reports whether scope is ancestor or one of its descendants.
func isDescendant(scope, ancestor *Scope) bool {
	for cur := scope; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}

	return false
}
