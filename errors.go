package nest

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/xraph/go-utils/errs"
)

// =============================================================================
// ERROR CODES
// =============================================================================

const (
	// CodeInvalidBinding indicates a malformed or duplicate binding
	CodeInvalidBinding = "INVALID_BINDING"

	// CodeNoConstructor indicates a type was bound for construction without a usable constructor
	CodeNoConstructor = "NO_CONSTRUCTOR"

	// CodeMemberInjection indicates a constructed type requests field injection
	CodeMemberInjection = "MEMBER_INJECTION_UNSUPPORTED"

	// CodeMissingInterfaceBinding indicates an interface has no binding in the scope chain
	CodeMissingInterfaceBinding = "MISSING_INTERFACE_BINDING"

	// CodeMissingBinding indicates a type has no instance in the scope chain
	CodeMissingBinding = "MISSING_BINDING"

	// CodeUnresolvedGraph indicates instantiation stopped making progress
	CodeUnresolvedGraph = "UNRESOLVED_DEPENDENCY_GRAPH"

	// CodeConstructionFailed indicates a constructor returned an error
	CodeConstructionFailed = "CONSTRUCTION_FAILED"

	// CodeLifecycle indicates a lifecycle callback failed
	CodeLifecycle = "LIFECYCLE_ERROR"

	// CodeDuplicateScopeID indicates two scopes share an identifier
	CodeDuplicateScopeID = "DUPLICATE_SCOPE_ID"

	// CodeInvalidScopeID indicates an empty scope identifier
	CodeInvalidScopeID = "INVALID_SCOPE_ID"

	// CodeMissingScope indicates a parent scope id is not installed
	CodeMissingScope = "MISSING_SCOPE"

	// CodeScopeTornDown indicates operation on a torn down scope
	CodeScopeTornDown = "SCOPE_TORN_DOWN"

	// CodeTypeMismatch indicates a resolved value has an unexpected type
	CodeTypeMismatch = "TYPE_MISMATCH"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

// ErrInvalidBinding is a sentinel for errors.Is checks on binding errors.
var ErrInvalidBinding = errs.NewError(CodeInvalidBinding, "invalid binding", nil)

// ErrNoConstructor is a sentinel for missing constructors.
var ErrNoConstructor = errs.NewError(CodeNoConstructor, "no constructor", nil)

// ErrMemberInjection is a sentinel for rejected member injection.
var ErrMemberInjection = errs.NewError(CodeMemberInjection, "member injection is not supported", nil)

// ErrMissingInterfaceBinding is a sentinel for missing interface bindings.
var ErrMissingInterfaceBinding = errs.NewError(CodeMissingInterfaceBinding, "missing interface binding", nil)

// ErrMissingBinding is a sentinel for missing instances.
var ErrMissingBinding = errs.NewError(CodeMissingBinding, "missing binding", nil)

// ErrUnresolvedGraph is a sentinel for stuck instantiation.
var ErrUnresolvedGraph = errs.NewError(CodeUnresolvedGraph, "unresolved dependency graph", nil)

// ErrConstructionFailed is a sentinel for constructor failures.
var ErrConstructionFailed = errs.NewError(CodeConstructionFailed, "construction failed", nil)

// ErrLifecycle is a sentinel for lifecycle callback failures.
var ErrLifecycle = errs.NewError(CodeLifecycle, "lifecycle error", nil)

// ErrDuplicateScopeID is a sentinel for duplicate scope identifiers.
var ErrDuplicateScopeID = errs.NewError(CodeDuplicateScopeID, "duplicate scope id", nil)

// ErrInvalidScopeID is returned when a scope is installed with an empty id.
var ErrInvalidScopeID = errs.NewError(CodeInvalidScopeID, "scope id cannot be empty", nil)

// ErrMissingScope is a sentinel for unknown parent scopes.
var ErrMissingScope = errs.NewError(CodeMissingScope, "missing scope", nil)

// ErrScopeTornDown is returned when operations are attempted on a torn down scope.
var ErrScopeTornDown = errs.NewError(CodeScopeTornDown, "scope has been torn down", nil)

// ErrTypeMismatch is a sentinel for type mismatches in typed helpers.
var ErrTypeMismatch = errs.NewError(CodeTypeMismatch, "type mismatch", nil)

// =============================================================================
// ERROR CONSTRUCTORS
// =============================================================================

// NewInvalidBindingError creates an error for a rejected binding declaration.
func NewInvalidBindingError(scopeID string, typ reflect.Type, reason string) *errs.Error {
	return errs.NewError(
		CodeInvalidBinding,
		fmt.Sprintf("invalid binding for %s in scope '%s': %s", typeName(typ), scopeID, reason),
		nil,
	).WithContext("scope", scopeID).
		WithContext("type", typeName(typ)).(*errs.Error)
}

// NewNoConstructorError creates an error for a type bound without a usable constructor.
func NewNoConstructorError(scopeID string, typ reflect.Type, reason string) *errs.Error {
	return errs.NewError(
		CodeNoConstructor,
		fmt.Sprintf("no constructor for %s in scope '%s': %s", typeName(typ), scopeID, reason),
		nil,
	).WithContext("scope", scopeID).
		WithContext("type", typeName(typ)).(*errs.Error)
}

// NewMemberInjectionError creates an error for a type that declares injected members.
func NewMemberInjectionError(scopeID string, typ reflect.Type, members []string) *errs.Error {
	return errs.NewError(
		CodeMemberInjection,
		fmt.Sprintf("member injection is not allowed: %s declares %s in scope '%s'",
			typeName(typ), strings.Join(members, ", "), scopeID),
		nil,
	).WithContext("scope", scopeID).
		WithContext("type", typeName(typ)).
		WithContext("members", members).(*errs.Error)
}

// NewMissingInterfaceBindingError creates an error for an interface unbound in the whole chain.
func NewMissingInterfaceBindingError(scopeID string, iface reflect.Type) *errs.Error {
	return errs.NewError(
		CodeMissingInterfaceBinding,
		fmt.Sprintf("missing interface binding %s in scope '%s'", typeName(iface), scopeID),
		nil,
	).WithContext("scope", scopeID).
		WithContext("type", typeName(iface)).(*errs.Error)
}

// NewMissingBindingError creates an error for a type with no instance in the whole chain.
func NewMissingBindingError(scopeID string, typ reflect.Type) *errs.Error {
	return errs.NewError(
		CodeMissingBinding,
		fmt.Sprintf("missing binding %s in scope '%s'", typeName(typ), scopeID),
		nil,
	).WithContext("scope", scopeID).
		WithContext("type", typeName(typ)).(*errs.Error)
}

// NewMissingNamedBindingError creates an error for a name alias unbound in the whole chain.
func NewMissingNamedBindingError(scopeID, name string) *errs.Error {
	return errs.NewError(
		CodeMissingBinding,
		fmt.Sprintf("missing binding named '%s' in scope '%s'", name, scopeID),
		nil,
	).WithContext("scope", scopeID).
		WithContext("name", name).(*errs.Error)
}

// NewUnresolvedGraphError creates an error naming every type still pending.
func NewUnresolvedGraphError(scopeID string, stuck []reflect.Type) *errs.Error {
	names := typeNames(stuck)

	return errs.NewError(
		CodeUnresolvedGraph,
		fmt.Sprintf("unresolved dependencies in scope '%s': %s", scopeID, strings.Join(names, ", ")),
		nil,
	).WithContext("scope", scopeID).
		WithContext("types", names).(*errs.Error)
}

// NewConstructionError wraps an error returned by a constructor.
func NewConstructionError(scopeID string, typ reflect.Type, cause error) *errs.Error {
	return errs.NewError(
		CodeConstructionFailed,
		fmt.Sprintf("constructing %s in scope '%s' failed", typeName(typ), scopeID),
		cause,
	).WithContext("scope", scopeID).
		WithContext("type", typeName(typ)).(*errs.Error)
}

// NewLifecycleError wraps a failing lifecycle callback.
func NewLifecycleError(scopeID string, typ reflect.Type, phase string, cause error) *errs.Error {
	return errs.NewError(
		CodeLifecycle,
		fmt.Sprintf("%s of %s in scope '%s' failed", phase, typeName(typ), scopeID),
		cause,
	).WithContext("scope", scopeID).
		WithContext("type", typeName(typ)).
		WithContext("phase", phase).(*errs.Error)
}

// NewDuplicateScopeIDError creates an error for a scope id that is already installed.
func NewDuplicateScopeIDError(scopeID string) *errs.Error {
	return errs.NewError(
		CodeDuplicateScopeID,
		fmt.Sprintf("a scope with the same id exists: '%s'", scopeID),
		nil,
	).WithContext("scope", scopeID).(*errs.Error)
}

// NewMissingScopeError creates an error for an unknown scope id.
func NewMissingScopeError(scopeID string) *errs.Error {
	return errs.NewError(
		CodeMissingScope,
		fmt.Sprintf("scope '%s' is not installed", scopeID),
		nil,
	).WithContext("scope", scopeID).(*errs.Error)
}

// NewScopeTornDownError creates an error for operations on a torn down scope.
func NewScopeTornDownError(scopeID string) *errs.Error {
	return errs.NewError(
		CodeScopeTornDown,
		fmt.Sprintf("scope '%s' has been torn down", scopeID),
		nil,
	).WithContext("scope", scopeID).(*errs.Error)
}

// NewTypeMismatchError creates an error for a resolved value of an unexpected type.
func NewTypeMismatchError(scopeID string, want reflect.Type, actual any) *errs.Error {
	return errs.NewError(
		CodeTypeMismatch,
		fmt.Sprintf("type mismatch in scope '%s': want %s, got %T", scopeID, typeName(want), actual),
		nil,
	).WithContext("scope", scopeID).
		WithContext("type", typeName(want)).
		WithContext("actual_type", fmt.Sprintf("%T", actual)).(*errs.Error)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}

func typeNames(types []reflect.Type) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = typeName(t)
	}

	return names
}
