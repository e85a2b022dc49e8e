package nest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/go-utils/errs"
)

type ticker struct {
	name  string
	calls *[]string
}

func (t *ticker) Tick(delta, _ time.Duration)      { *t.calls = append(*t.calls, "tick:"+t.name+":"+delta.String()) }
func (t *ticker) LateTick(_, _ time.Duration)      { *t.calls = append(*t.calls, "late:"+t.name) }
func (t *ticker) FixedTick(_, unscaled time.Duration) {
	*t.calls = append(*t.calls, "fixed:"+t.name+":"+unscaled.String())
}

type otherTicker struct{ ticker }

type initCounter struct {
	count int
	err   error
}

func (i *initCounter) Initialize() error {
	i.count++

	return i.err
}

type unhealthy struct{}

func (unhealthy) Health(context.Context) error { return errors.New("degraded") }

func TestLifecycle_InitializeOncePerInstance(t *testing.T) {
	counter := &initCounter{}

	_, err := NewDirectory().InstallRoot(installers(func(b *Binder) error {
		return Bind(b, func() *initCounter { return counter })
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, counter.count)
}

func TestLifecycle_InitializeErrorRollsBack(t *testing.T) {
	dir := NewDirectory()
	boom := errors.New("boom")
	resource := &disposableResource{}

	_, err := dir.InstallRoot(installers(func(b *Binder) error {
		if err := Bind(b, func() *disposableResource { return resource }); err != nil {
			return err
		}

		return BindInstance(b, &initCounter{err: boom})
	}))
	require.ErrorIs(t, err, ErrLifecycle)

	var coded *errs.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, "initialize", coded.GetContext()["phase"])
	assert.ErrorIs(t, coded.Cause(), boom)

	assert.Equal(t, 1, resource.disposed)

	_, ok := dir.Root()
	assert.False(t, ok)
}

func TestLifecycle_TicksInTableOrder(t *testing.T) {
	var calls []string

	root, err := NewDirectory().InstallRoot(installers(func(b *Binder) error {
		if err := BindInstance(b, &ticker{name: "a", calls: &calls}); err != nil {
			return err
		}

		return Bind(b, func() *otherTicker { return &otherTicker{ticker{name: "b", calls: &calls}} })
	}))
	require.NoError(t, err)

	root.Tick(time.Second, 2*time.Second)
	root.LateTick(time.Second, time.Second)
	root.FixedTick(time.Millisecond, 20*time.Millisecond)

	assert.Equal(t, []string{
		"tick:a:1s", "tick:b:1s",
		"late:a", "late:b",
		"fixed:a:20ms", "fixed:b:20ms",
	}, calls)
}

func TestLifecycle_NoTicksAfterTeardown(t *testing.T) {
	dir := NewDirectory()

	var calls []string

	root, err := dir.InstallRoot(installers(func(b *Binder) error {
		return BindInstance(b, &ticker{name: "a", calls: &calls})
	}))
	require.NoError(t, err)

	require.NoError(t, dir.Close(context.Background()))

	root.Tick(time.Second, time.Second)
	root.LateTick(time.Second, time.Second)
	root.FixedTick(time.Second, time.Second)

	assert.Empty(t, calls)
}

func TestLifecycle_StartStopServices(t *testing.T) {
	type first struct{ testHostService }
	type second struct{ testHostService }

	var calls []string

	root, err := NewDirectory().InstallRoot(installers(func(b *Binder) error {
		if err := BindInstance(b, &first{testHostService{name: "first", calls: &calls}}); err != nil {
			return err
		}

		return BindInstance(b, &second{testHostService{name: "second", calls: &calls}})
	}))
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, root.Start(ctx))
	require.NoError(t, root.Health(ctx))
	require.NoError(t, root.Stop(ctx))

	assert.Equal(t, []string{"start:first", "start:second", "stop:second", "stop:first"}, calls)
}

func TestLifecycle_StartFailureStopsStarted(t *testing.T) {
	type first struct{ testHostService }
	type second struct{ testHostService }

	var calls []string

	boom := errors.New("boom")

	root, err := NewDirectory().InstallRoot(installers(func(b *Binder) error {
		if err := BindInstance(b, &first{testHostService{name: "first", calls: &calls}}); err != nil {
			return err
		}

		return BindInstance(b, &second{testHostService{name: "second", calls: &calls, failErr: boom}})
	}))
	require.NoError(t, err)

	err = root.Start(context.Background())
	assert.ErrorIs(t, err, ErrLifecycle)

	assert.Equal(t, []string{"start:first", "start:second", "stop:first"}, calls)
}

func TestLifecycle_TeardownStopsRunningServices(t *testing.T) {
	dir := NewDirectory()

	var calls []string

	root, err := dir.InstallRoot(installers(func(b *Binder) error {
		return BindInstance(b, &testHostService{name: "svc", calls: &calls})
	}))
	require.NoError(t, err)

	require.NoError(t, root.Start(context.Background()))
	require.NoError(t, dir.Close(context.Background()))

	assert.Equal(t, []string{"start:svc", "stop:svc"}, calls)
	assert.ErrorIs(t, root.Start(context.Background()), ErrScopeTornDown)
}

func TestLifecycle_Health(t *testing.T) {
	root, err := NewDirectory().InstallRoot(installers(func(b *Binder) error {
		return BindInstance(b, unhealthy{})
	}))
	require.NoError(t, err)

	err = root.Health(context.Background())
	assert.ErrorIs(t, err, ErrLifecycle)
	requireErrContext(t, err, "phase", "health")
}
