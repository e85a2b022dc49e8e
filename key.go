package nest

// Key provides type-safe name-based lookup.
// Use NewKey to create typed keys for named bindings.
type Key[T any] struct {
	name string
}

// NewKey creates a new typed key.
//
// Example:
//
//	var PlayerKey = nest.NewKey[*Player]("player")
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the string name of the key.
func (k Key[T]) Name() string {
	return k.name
}

// BindKey attaches the key's name to T in the scope being installed.
//
// Example:
//
//	var PlayerKey = nest.NewKey[*Player]("player")
//	nest.BindKey(b, PlayerKey)
func BindKey[T any](b *Binder, key Key[T]) error {
	return BindName[T](b, key.name)
}

// ResolveKey resolves the instance bound to the key's name.
//
// Example:
//
//	player, err := nest.ResolveKey(scope, PlayerKey)
func ResolveKey[T any](s *Scope, key Key[T]) (T, error) {
	return ResolveNamed[T](s, key.name)
}

// MustKey resolves using a typed key and panics on error.
func MustKey[T any](s *Scope, key Key[T]) T {
	result, err := ResolveKey(s, key)
	if err != nil {
		panic(err)
	}

	return result
}
