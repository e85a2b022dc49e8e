// Package nest is a hierarchical dependency injection runtime.
//
// A Directory owns a tree of scopes. Each scope is installed once: its
// installers declare bindings through a Binder, then every deferred binding
// is constructed in dependency order. Lookups that miss in a scope fall back
// to its parent, so a child can shadow any binding of its ancestors without
// touching them.
//
//	dir := nest.NewDirectory(nest.WithLogger(logger))
//
//	root, err := dir.InstallRoot([]nest.Installer{
//	    nest.InstallerFunc(func(b *nest.Binder) error {
//	        return nest.BindAs[Clock](b, NewSystemClock)
//	    }),
//	})
//
//	level, err := dir.InstallChild("level-1", nest.RootScopeID, []nest.Installer{LevelInstaller{}})
//	spawner := nest.Must[*Spawner](level)
package nest

import (
	"github.com/xraph/go-utils/di"
)

// Disposable is released when its scope is torn down or its install fails.
type Disposable = di.Disposable

// Service is started and stopped with its scope.
type Service = di.Service

// HealthChecker takes part in Scope.Health.
type HealthChecker = di.HealthChecker
