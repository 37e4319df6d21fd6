package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/logging"
	"github.com/aretw0/rewind/pkg/adapters/memory"
	"github.com/aretw0/rewind/pkg/domain"
)

// ErrSessionExists is returned by Create when the ID is already taken.
var ErrSessionExists = errors.New("session already exists")

// Store holds live machines by ID.
// memory.Store is the default implementation.
type Store interface {
	Save(ctx context.Context, id string, m *rewind.Machine) error
	Load(ctx context.Context, id string) (*rewind.Machine, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates machine access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store Store

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	machineOpts []rewind.Option
	logger      *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMachineOptions appends options applied to every machine created by the Manager,
// typically lifecycle hooks and a logger.
func WithMachineOptions(opts ...rewind.Option) Option {
	return func(m *Manager) {
		m.machineOpts = append(m.machineOpts, opts...)
	}
}

// NewManager creates a Manager backed by store. A nil store uses memory.NewStore.
func NewManager(store Store, opts ...Option) *Manager {
	if store == nil {
		store = memory.NewStore()
	}
	m := &Manager{
		store:  store,
		locks:  make(map[string]*lockEntry),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// lock runs fn while holding the mutex for id.
func (m *Manager) lock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// Create builds a machine from cfg and registers it under id.
// An empty id is replaced with a random UUID. The assigned id is returned.
// opts are applied after the Manager's own machine options.
func (m *Manager) Create(ctx context.Context, id string, cfg *domain.Config, opts ...rewind.Option) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	err := m.lock(ctx, id, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, id)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrSessionExists, id)
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		all := make([]rewind.Option, 0, len(m.machineOpts)+len(opts)+1)
		all = append(all, rewind.WithName(id))
		all = append(all, m.machineOpts...)
		all = append(all, opts...)
		machine, err := rewind.New(cfg, all...)
		if err != nil {
			return err
		}

		if err := m.store.Save(ctx, id, machine); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	m.logger.Debug("session created", "session_id", id)
	return id, nil
}

// WithLock executes fn with exclusive access to the machine registered under id.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context, *rewind.Machine) error) error {
	return m.lock(ctx, id, func(ctx context.Context) error {
		machine, err := m.store.Load(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, machine)
	})
}

// Snapshot returns a consistent view of the machine registered under id.
func (m *Manager) Snapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := m.WithLock(ctx, id, func(_ context.Context, machine *rewind.Machine) error {
		snap = machine.Snapshot()
		return nil
	})
	return snap, err
}

// Get returns the machine registered under id without locking it.
// Callers must not mutate it outside WithLock.
func (m *Manager) Get(ctx context.Context, id string) (*rewind.Machine, error) {
	return m.store.Load(ctx, id)
}

// Delete removes the machine from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.lock(ctx, id, func(ctx context.Context) error {
		if _, err := m.store.Load(ctx, id); err != nil {
			return err
		}
		if err := m.store.Delete(ctx, id); err != nil {
			return err
		}
		m.logger.Debug("session deleted", "session_id", id)
		return nil
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}
