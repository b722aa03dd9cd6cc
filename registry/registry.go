// Package registry provides a process-wide, lookup-or-create store of
// session-backed components such as data-access repositories.
//
// Each component type is constructed at most once. Components receive a
// SessionProvider instead of a session, so they always use the manager's
// current session and report "not connected" rather than holding on to a
// closed handle.
//
// Example:
//
//	reg := registry.New(manager)
//	users, err := registry.Get(reg, NewUserRepository)
package registry

import (
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/cqlboot/adapter/cql"
)

// SessionProvider hands out the current session. *cqlboot.Manager
// implements it.
type SessionProvider interface {
	Session() (cql.Session, error)
}

// Constructor builds a component of type T.
type Constructor[T any] func(provider SessionProvider) (T, error)

// Registry holds one instance per component type.
type Registry struct {
	provider SessionProvider
	entries  *xsync.MapOf[reflect.Type, any]
}

// New creates an empty registry backed by provider.
func New(provider SessionProvider) *Registry {
	return &Registry{
		provider: provider,
		entries:  xsync.NewMapOf[reflect.Type, any](),
	}
}

// Get returns the instance of T, constructing it on first use.
//
// Concurrent first calls construct T exactly once. A failing constructor
// stores nothing, so a later call tries again. The constructor runs while
// the entry is locked and must not call Get for the same type.
func Get[T any](r *Registry, ctor Constructor[T]) (T, error) {
	key := reflect.TypeFor[T]()

	var ctorErr error
	value, _ := r.entries.Compute(key, func(old any, loaded bool) (any, bool) {
		if loaded {
			return old, false
		}

		instance, err := ctor(r.provider)
		if err != nil {
			ctorErr = err
			return nil, true
		}

		return instance, false
	})

	if ctorErr != nil {
		var zero T
		return zero, ctorErr
	}

	return value.(T), nil
}

// Lookup returns the instance of T if it has been constructed.
func Lookup[T any](r *Registry) (T, bool) {
	value, ok := r.entries.Load(reflect.TypeFor[T]())
	if !ok {
		var zero T
		return zero, false
	}

	return value.(T), true
}

// Len returns the number of constructed components.
func (r *Registry) Len() int {
	return r.entries.Size()
}

// Reset drops every component.
func (r *Registry) Reset() {
	r.entries.Clear()
}

// Provider returns the session provider passed to constructors.
func (r *Registry) Provider() SessionProvider {
	return r.provider
}
