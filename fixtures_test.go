package nest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xraph/go-utils/errs"
	"github.com/xraph/go-utils/log"
)

type testLogger interface {
	Log(msg string)
}

type consoleLogger struct {
	lines []string
}

func (l *consoleLogger) Log(msg string) {
	l.lines = append(l.lines, msg)
}

func newConsoleLogger() *consoleLogger {
	return &consoleLogger{}
}

type fileLogger struct{}

func (*fileLogger) Log(string) {}

func newFileLogger() *fileLogger {
	return &fileLogger{}
}

type service struct {
	logger testLogger
}

func newService(logger testLogger) *service {
	return &service{logger: logger}
}

type pool struct {
	size int
}

func newPool() *pool {
	return &pool{size: 8}
}

type spawner struct {
	pool *pool
	rate int
}

func newSpawner(p *pool, rate int) *spawner {
	return &spawner{pool: p, rate: rate}
}

type cycleA struct{ b *cycleB }
type cycleB struct{ a *cycleA }

func newCycleA(b *cycleB) *cycleA { return &cycleA{b: b} }
func newCycleB(a *cycleA) *cycleB { return &cycleB{a: a} }

type disposableResource struct {
	disposed int
	err      error
}

func (d *disposableResource) Dispose() error {
	d.disposed++

	return d.err
}

type memberInjected struct {
	Pool *pool `inject:""`
}

type testHostService struct {
	name    string
	calls   *[]string
	failErr error
}

func (s *testHostService) Name() string { return s.name }

func (s *testHostService) Start(context.Context) error {
	*s.calls = append(*s.calls, "start:"+s.name)

	return s.failErr
}

func (s *testHostService) Stop(context.Context) error {
	*s.calls = append(*s.calls, "stop:"+s.name)

	return nil
}

func (s *testHostService) Health(context.Context) error { return nil }

func installers(fns ...func(b *Binder) error) []Installer {
	out := make([]Installer, len(fns))
	for i, fn := range fns {
		out[i] = InstallerFunc(fn)
	}

	return out
}

func newTestBinder(scopeID string) *Binder {
	return &Binder{
		registry: newRegistry(scopeID),
		logger:   log.NewNoopLogger(),
	}
}

// requireErrContext asserts err is an *errs.Error carrying key=value.
func requireErrContext(t *testing.T, err error, key string, value any) {
	t.Helper()

	var coded *errs.Error
	require.True(t, errors.As(err, &coded), "expected *errs.Error, got %T", err)
	require.Equal(t, value, coded.GetContext()[key])
}
