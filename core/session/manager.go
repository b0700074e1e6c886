package session

import (
	"context"
	"errors"
	"sync"

	"github.com/somaedu/soma/core/user"
)

var (
	// errors
	ErrBadCredentials = errors.New("invalid email or password")
)

type (
	// Slot is the durable single-value store holding the last authenticated
	// identity's id. Read returns "" when the slot is absent.
	Slot interface {
		Read() (string, error)
		Write(id string) error
		Clear() error
	}

	// Resolver resolves and authenticates identities, against either the
	// remote user service or the local demo store depending on build variant.
	Resolver interface {
		ResolveByID(ctx context.Context, id string) (user.User, error)
		Authenticate(ctx context.Context, email, password string) (user.User, error)
		Register(ctx context.Context, nu user.NewUser) (user.User, error)
	}

	// Notifier surfaces session events to the user (the toast analogue).
	Notifier interface {
		Notify(title, detail string)
	}

	// Manager owns the current identity for a portal session. It is an
	// explicit, injectable service with a defined lifecycle: Startup once,
	// Logout on teardown. No ambient global state.
	Manager struct {
		slot     Slot
		resolver Resolver
		notifier Notifier

		mu      sync.RWMutex
		current *user.User
		loading bool
	}
)

func NewManager(slot Slot, resolver Resolver, notifier Notifier) *Manager {
	return &Manager{slot: slot, resolver: resolver, notifier: notifier}
}

// Startup rehydrates the session from the durable slot. Whatever happens,
// the manager leaves the loading state: a failed rehydration means an absent
// session, never a broken app.
func (m *Manager) Startup(ctx context.Context) {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	id, err := m.slot.Read()
	if err != nil || id == "" {
		return
	}
	usr, err := m.resolver.ResolveByID(ctx, id)
	if err != nil {
		return
	}

	m.mu.Lock()
	m.current = &usr
	m.mu.Unlock()
}

// Login authenticates and makes the identity current. On failure the session
// state is left unchanged and the slot untouched: the slot only ever holds a
// verified id.
func (m *Manager) Login(ctx context.Context, email, password string) (user.User, error) {
	usr, err := m.resolver.Authenticate(ctx, email, password)
	if err != nil {
		m.notify("Login failed", "Invalid email or password")
		return user.User{}, err
	}
	if err := m.slot.Write(usr.ID); err != nil {
		return user.User{}, err
	}

	m.mu.Lock()
	m.current = &usr
	m.mu.Unlock()

	m.notify("Welcome back!", "Logged in as "+usr.Name)
	return usr, nil
}

// Register creates the account and makes it the current session immediately;
// no separate login step.
func (m *Manager) Register(ctx context.Context, nu user.NewUser) (user.User, error) {
	usr, err := m.resolver.Register(ctx, nu)
	if err != nil {
		m.notify("Registration failed", err.Error())
		return user.User{}, err
	}
	if err := m.slot.Write(usr.ID); err != nil {
		return user.User{}, err
	}

	m.mu.Lock()
	m.current = &usr
	m.mu.Unlock()

	m.notify("Welcome!", "Your account has been created successfully")
	return usr, nil
}

// Logout is total: regardless of prior state, the session ends absent and
// the slot is cleared.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	_ = m.slot.Clear()
	m.notify("Logged out", "You have been logged out successfully")
}

// Current returns the authenticated identity, if any.
func (m *Manager) Current() (user.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return user.User{}, false
	}
	return *m.current, true
}

// Loading reports whether startup rehydration is still in progress.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

func (m *Manager) notify(title, detail string) {
	if m.notifier != nil {
		m.notifier.Notify(title, detail)
	}
}
