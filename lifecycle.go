package nest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/xraph/go-utils/di"
	"github.com/xraph/go-utils/log"
)

// Initializable is implemented by instances that need a one-time callback
// after the whole scope is constructed.
type Initializable interface {
	Initialize() error
}

// Tickable receives a callback on every host tick.
type Tickable interface {
	Tick(delta, unscaledDelta time.Duration)
}

// LateTickable receives a callback after every Tickable has ticked.
type LateTickable interface {
	LateTick(delta, unscaledDelta time.Duration)
}

// FixedTickable receives a callback on every fixed-rate step.
type FixedTickable interface {
	FixedTick(delta, unscaledDelta time.Duration)
}

// lifecycle holds the callback lists of a scope, each in instance table order.
type lifecycle struct {
	initializables []Initializable
	tickables      []Tickable
	lateTickables  []LateTickable
	fixedTickables []FixedTickable
	disposables    []di.Disposable
	services       []di.Service
	checkers       []di.HealthChecker
	started        int
}

// collectLifecycle sorts instances into the callback lists.
func collectLifecycle(instances []any) *lifecycle {
	l := &lifecycle{}

	for _, instance := range instances {
		if v, ok := instance.(Initializable); ok {
			l.initializables = append(l.initializables, v)
		}

		if v, ok := instance.(Tickable); ok {
			l.tickables = append(l.tickables, v)
		}

		if v, ok := instance.(LateTickable); ok {
			l.lateTickables = append(l.lateTickables, v)
		}

		if v, ok := instance.(FixedTickable); ok {
			l.fixedTickables = append(l.fixedTickables, v)
		}

		if v, ok := instance.(di.Disposable); ok {
			l.disposables = append(l.disposables, v)
		}

		if v, ok := instance.(di.Service); ok {
			l.services = append(l.services, v)
		}

		if v, ok := instance.(di.HealthChecker); ok {
			l.checkers = append(l.checkers, v)
		}
	}

	return l
}

// initialize calls Initialize once on every Initializable.
func (s *Scope) initialize() error {
	for _, v := range s.lifecycle.initializables {
		if err := v.Initialize(); err != nil {
			return NewLifecycleError(s.id, reflect.TypeOf(v), "initialize", err)
		}
	}

	return nil
}

// Tick forwards a host tick to every Tickable in the scope.
func (s *Scope) Tick(delta, unscaledDelta time.Duration) {
	if s.IsTornDown() {
		return
	}

	for _, v := range s.lifecycle.tickables {
		v.Tick(delta, unscaledDelta)
	}
}

// LateTick forwards a late tick to every LateTickable in the scope.
func (s *Scope) LateTick(delta, unscaledDelta time.Duration) {
	if s.IsTornDown() {
		return
	}

	for _, v := range s.lifecycle.lateTickables {
		v.LateTick(delta, unscaledDelta)
	}
}

// FixedTick forwards a fixed step to every FixedTickable in the scope.
func (s *Scope) FixedTick(delta, unscaledDelta time.Duration) {
	if s.IsTornDown() {
		return
	}

	for _, v := range s.lifecycle.fixedTickables {
		v.FixedTick(delta, unscaledDelta)
	}
}

// Start starts every di.Service in the scope in instance table order.
// If one fails, the services already started are stopped in reverse order.
func (s *Scope) Start(ctx context.Context) error {
	if err := s.checkAlive(); err != nil {
		return err
	}

	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	services := s.lifecycle.services
	for i := s.lifecycle.started; i < len(services); i++ {
		if err := services[i].Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = services[j].Stop(ctx)
			}

			s.lifecycle.started = 0

			return NewLifecycleError(s.id, reflect.TypeOf(services[i]), "start", err)
		}

		s.lifecycle.started = i + 1
	}

	s.logger.Debug("scope services started", log.Int("services", len(services)))

	return nil
}

// Stop stops the started services in reverse order.
func (s *Scope) Stop(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	return s.stopLocked(ctx)
}

// stopLocked stops started services. Callers hold s.lifeMu.
func (s *Scope) stopLocked(ctx context.Context) error {
	services := s.lifecycle.services

	for i := s.lifecycle.started - 1; i >= 0; i-- {
		if err := services[i].Stop(ctx); err != nil {
			s.lifecycle.started = i

			return NewLifecycleError(s.id, reflect.TypeOf(services[i]), "stop", err)
		}
	}

	s.lifecycle.started = 0

	return nil
}

// Health checks every di.HealthChecker in the scope.
func (s *Scope) Health(ctx context.Context) error {
	if err := s.checkAlive(); err != nil {
		return err
	}

	for _, checker := range s.lifecycle.checkers {
		if err := checker.Health(ctx); err != nil {
			return NewLifecycleError(s.id, reflect.TypeOf(checker), "health", err)
		}
	}

	return nil
}

// teardown stops running services and disposes every disposable instance
// exactly once. The scope rejects lookups afterwards.
func (s *Scope) teardown(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.IsTornDown() {
		return NewScopeTornDownError(s.id)
	}

	var errs []error

	if err := s.stopLocked(ctx); err != nil {
		errs = append(errs, err)
	}

	for _, d := range s.lifecycle.disposables {
		if err := d.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("failed to dispose %T: %w", d, err))
		}
	}

	s.lifecycle.disposables = nil

	s.mu.Lock()
	s.tornDown = true
	s.mu.Unlock()

	s.logger.Debug("scope torn down")

	if len(errs) > 0 {
		return fmt.Errorf("scope cleanup errors: %w", errors.Join(errs...))
	}

	return nil
}
