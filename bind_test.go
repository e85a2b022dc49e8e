package nest

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindInterface(t *testing.T) {
	b := newTestBinder("root")

	require.NoError(t, BindInterface[testLogger, *consoleLogger](b))

	concrete, ok := b.registry.interfaceBinding(loggerType)
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[*consoleLogger](), concrete)
}

func TestBindInterface_Rejects(t *testing.T) {
	t.Run("not an interface", func(t *testing.T) {
		err := BindInterface[*pool, *pool](newTestBinder("root"))
		assert.ErrorIs(t, err, ErrInvalidBinding)
		requireErrContext(t, err, "scope", "root")
	})

	t.Run("interface as concrete", func(t *testing.T) {
		err := BindInterface[testLogger, testLogger](newTestBinder("root"))
		assert.ErrorIs(t, err, ErrInvalidBinding)
	})

	t.Run("does not implement", func(t *testing.T) {
		err := BindInterface[testLogger, *pool](newTestBinder("root"))
		assert.ErrorIs(t, err, ErrInvalidBinding)
		requireErrContext(t, err, "type", loggerType.String())
	})

	t.Run("duplicate in scope", func(t *testing.T) {
		b := newTestBinder("root")
		require.NoError(t, BindInterface[testLogger, *consoleLogger](b))

		err := BindInterface[testLogger, *fileLogger](b)
		assert.ErrorIs(t, err, ErrInvalidBinding)
	})
}

func TestBindInstance(t *testing.T) {
	b := newTestBinder("root")
	p := &pool{size: 2}

	require.NoError(t, BindInstance(b, p))

	instance, ok := b.registry.instance(poolType)
	require.True(t, ok)
	assert.Same(t, p, instance)
	assert.Empty(t, b.registry.pending)
}

func TestBindInstance_InterfaceDeclared(t *testing.T) {
	b := newTestBinder("root")
	logger := newConsoleLogger()

	require.NoError(t, BindInstance[testLogger](b, logger))

	concrete, ok := b.registry.interfaceBinding(loggerType)
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[*consoleLogger](), concrete)

	instance, ok := b.registry.instance(concrete)
	require.True(t, ok)
	assert.Same(t, logger, instance)
}

func TestBindInstance_RejectsNil(t *testing.T) {
	b := newTestBinder("root")

	assert.ErrorIs(t, BindInstance[testLogger](b, nil), ErrInvalidBinding)
	assert.ErrorIs(t, BindInstance[*pool](b, nil), ErrInvalidBinding)
}

func TestBind_QueuesInRegistrationOrder(t *testing.T) {
	b := newTestBinder("root")

	require.NoError(t, Bind(b, newSpawner, 5))
	require.NoError(t, Bind(b, newPool))

	require.Len(t, b.registry.pending, 2)
	assert.Equal(t, spawnerType, b.registry.pending[0].typ)
	assert.Equal(t, poolType, b.registry.pending[1].typ)
	assert.Equal(t, []reflect.Type{spawnerType, poolType}, b.registry.graph.Nodes())
}

func TestBind_DuplicateConcreteType(t *testing.T) {
	b := newTestBinder("root")
	require.NoError(t, Bind(b, newPool))

	err := Bind(b, func() *pool { return &pool{} })
	assert.ErrorIs(t, err, ErrInvalidBinding)

	err = BindInstance(b, &pool{})
	assert.ErrorIs(t, err, ErrInvalidBinding)
}

func TestBind_BadLiteralsAreInvalidBindings(t *testing.T) {
	b := newTestBinder("root")

	err := Bind(b, newSpawner, "fast")
	assert.ErrorIs(t, err, ErrInvalidBinding)
	requireErrContext(t, err, "type", spawnerType.String())
}

func TestBind_NoConstructor(t *testing.T) {
	b := newTestBinder("root")

	assert.ErrorIs(t, Bind(b, &pool{}), ErrNoConstructor)
	assert.ErrorIs(t, Bind(b, nil), ErrNoConstructor)
	assert.ErrorIs(t, Bind(b, func() testLogger { return nil }), ErrNoConstructor)
}

func TestBind_RejectsMemberInjection(t *testing.T) {
	b := newTestBinder("root")

	err := Bind(b, func() *memberInjected { return &memberInjected{} })
	assert.ErrorIs(t, err, ErrMemberInjection)
	requireErrContext(t, err, "members", []string{"Pool"})

	err = BindType[*memberInjected](b)
	assert.ErrorIs(t, err, ErrMemberInjection)
}

func TestBindAs(t *testing.T) {
	b := newTestBinder("root")

	require.NoError(t, BindAs[testLogger](b, newConsoleLogger))

	concrete, ok := b.registry.interfaceBinding(loggerType)
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[*consoleLogger](), concrete)

	err := BindAs[testLogger](b, newPool)
	assert.ErrorIs(t, err, ErrInvalidBinding)
}

func TestBindType(t *testing.T) {
	b := newTestBinder("root")

	require.NoError(t, BindType[*pool](b))
	require.Len(t, b.registry.pending, 1)

	assert.ErrorIs(t, BindType[pool](b), ErrNoConstructor)
}

func TestBindName(t *testing.T) {
	b := newTestBinder("root")

	require.NoError(t, BindName[*pool](b, "pool"))

	typ, ok := b.registry.named("pool")
	require.True(t, ok)
	assert.Equal(t, poolType, typ)

	assert.ErrorIs(t, BindName[*pool](b, ""), ErrInvalidBinding)
	assert.ErrorIs(t, BindName[*spawner](b, "pool"), ErrInvalidBinding)
}

func TestBinder_ArgumentsAndScopeID(t *testing.T) {
	b := newTestBinder("level")
	b.arguments = []any{"a", 1}

	assert.Equal(t, "level", b.ScopeID())
	assert.Equal(t, []any{"a", 1}, b.Arguments())
}
