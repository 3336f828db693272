// Package registry implements the certificate registry state machine: an admin that
// onboards institutes, institutes that post certificates, and students that query them.
//
// A Registry owns one Store and serializes every operation against it. The store, clock
// and notification sink are collaborators injected at construction.
package registry

import (
	"fmt"
	"sync"

	"certregistry/model"

	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("certregistry.registry")

// MaxBulkItems is the largest batch accepted by BulkUpload.
const MaxBulkItems = 100

// Registry is the single aggregate over admin, institutes, certificates and students.
// Mutations hold the write lock for their whole duration; queries hold the read lock.
type Registry struct {
	mu     sync.RWMutex
	store  Store
	clock  Clock
	events Publisher
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock used to stamp certificates. Defaults to SystemClock.
func WithClock(clock Clock) Option {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithPublisher sets the notification sink. Defaults to discarding events.
func WithPublisher(publisher Publisher) Option {
	return func(r *Registry) {
		if publisher != nil {
			r.events = publisher
		}
	}
}

// New creates a Registry over store.
func New(store Store, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidArgument)
	}
	r := &Registry{
		store:  store,
		clock:  SystemClock{},
		events: discardPublisher{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Initialize records caller as the registry admin. It can succeed only once per store.
func (r *Registry) Initialize(caller string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok, err := r.store.Admin()
	if err != nil {
		return fmt.Errorf("Initialize: failed to read admin: %w", err)
	}
	if ok {
		return fmt.Errorf("%w: admin is already '%s'", ErrAlreadyInitialized, admin)
	}
	if err := r.store.SetAdmin(caller); err != nil {
		return fmt.Errorf("Initialize: failed to store admin '%s': %w", caller, err)
	}
	logger.Infof("Registry initialized with admin '%s'", caller)
	return nil
}

// Admin returns the admin identity.
func (r *Registry) Admin() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admin()
}

// admin loads the admin identity. Callers hold r.mu.
func (r *Registry) admin() (string, error) {
	admin, ok, err := r.store.Admin()
	if err != nil {
		return "", fmt.Errorf("failed to read admin: %w", err)
	}
	if !ok {
		return "", ErrNotInitialized
	}
	return admin, nil
}

// requireAdmin fails with ErrUnauthorized unless caller is the admin. Callers hold r.mu.
func (r *Registry) requireAdmin(caller string) error {
	admin, err := r.admin()
	if err != nil {
		return err
	}
	if caller != admin {
		return fmt.Errorf("%w: caller '%s' is not the registry admin", ErrUnauthorized, caller)
	}
	return nil
}

// requireInstitute returns the first institute registered under caller. Callers hold r.mu.
func (r *Registry) requireInstitute(caller string) (model.Institute, error) {
	if _, err := r.admin(); err != nil {
		return model.Institute{}, err
	}
	institutes, err := r.store.Institutes()
	if err != nil {
		return model.Institute{}, fmt.Errorf("failed to read institutes: %w", err)
	}
	for _, inst := range institutes {
		if inst.InstituteIdentity == caller {
			return inst, nil
		}
	}
	return model.Institute{}, fmt.Errorf("%w: caller '%s' is not a registered institute", ErrUnauthorized, caller)
}

// now returns the clock reading in unix seconds.
func (r *Registry) now() (int64, error) {
	t, err := r.clock.Now()
	if err != nil {
		return 0, fmt.Errorf("failed to read clock: %w", err)
	}
	return t.Unix(), nil
}
