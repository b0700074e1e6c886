package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/user"
)

type memSlot struct {
	id string
}

func (s *memSlot) Read() (string, error) { return s.id, nil }
func (s *memSlot) Write(id string) error { s.id = id; return nil }
func (s *memSlot) Clear() error          { s.id = ""; return nil }

type fakeResolver struct {
	users map[string]user.User // by email
}

func (r *fakeResolver) ResolveByID(_ context.Context, id string) (user.User, error) {
	for _, usr := range r.users {
		if usr.ID == id {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *fakeResolver) Authenticate(_ context.Context, email, password string) (user.User, error) {
	usr, ok := r.users[email]
	if !ok {
		return user.User{}, ErrBadCredentials
	}
	if err := usr.CheckPassword(password); err != nil {
		return user.User{}, ErrBadCredentials
	}
	return usr, nil
}

func (r *fakeResolver) Register(_ context.Context, nu user.NewUser) (user.User, error) {
	if _, ok := r.users[nu.Email]; ok {
		return user.User{}, core.NewValidationError(user.ErrEmailExists)
	}
	usr := user.User{ID: core.NewID(), Name: nu.Name, Email: nu.Email, Roles: nu.Roles}
	_ = usr.SetPassword(nu.Password)
	r.users[nu.Email] = usr
	return usr, nil
}

func setup(t *testing.T) (*Manager, *memSlot, *fakeResolver) {
	t.Helper()
	usr := user.User{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", Name: "Alex Thompson", Email: "student@elearn.test", Roles: []string{user.RoleStudent}}
	if err := usr.SetPassword("S0me-pass!"); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	slot := &memSlot{}
	resolver := &fakeResolver{users: map[string]user.User{usr.Email: usr}}
	return NewManager(slot, resolver, nil), slot, resolver
}

func TestManagerStartup(t *testing.T) {
	ctx := context.Background()

	t.Run("absent slot leaves session absent", func(t *testing.T) {
		mgr, _, _ := setup(t)
		mgr.Startup(ctx)
		_, ok := mgr.Current()
		assert.False(t, ok)
		assert.False(t, mgr.Loading())
	})

	t.Run("slot id resolves to current identity", func(t *testing.T) {
		mgr, slot, _ := setup(t)
		slot.id = "01ARZ3NDEKTSV4RRFFQ69G5FAV"
		mgr.Startup(ctx)
		usr, ok := mgr.Current()
		assert.True(t, ok)
		assert.Equal(t, "student@elearn.test", usr.Email)
		assert.False(t, mgr.Loading())
	})

	t.Run("stale slot id leaves session absent", func(t *testing.T) {
		mgr, slot, _ := setup(t)
		slot.id = "01BXDEADBEEFDEADBEEFDEADBE"
		mgr.Startup(ctx)
		_, ok := mgr.Current()
		assert.False(t, ok)
		assert.False(t, mgr.Loading())
	})
}

func TestManagerLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists the identity id", func(t *testing.T) {
		mgr, slot, _ := setup(t)
		usr, err := mgr.Login(ctx, "student@elearn.test", "S0me-pass!")
		assert.NoError(t, err)
		assert.Equal(t, usr.ID, slot.id)
		cur, ok := mgr.Current()
		assert.True(t, ok)
		assert.Equal(t, usr.ID, cur.ID)
	})

	t.Run("failure leaves state and slot untouched", func(t *testing.T) {
		mgr, slot, _ := setup(t)
		_, err := mgr.Login(ctx, "student@elearn.test", "wrong")
		assert.Equal(t, ErrBadCredentials, err)
		assert.Empty(t, slot.id)
		_, ok := mgr.Current()
		assert.False(t, ok)
	})
}

func TestManagerRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("new identity becomes the current session", func(t *testing.T) {
		mgr, slot, _ := setup(t)
		usr, err := mgr.Register(ctx, user.NewUser{
			Name:     "New Student",
			Email:    "new@elearn.test",
			Password: "S0me-pass!",
			Roles:    []string{user.RoleStudent},
		})
		assert.NoError(t, err)
		assert.Equal(t, usr.ID, slot.id)
		cur, ok := mgr.Current()
		assert.True(t, ok)
		assert.Equal(t, "new@elearn.test", cur.Email)
	})

	t.Run("duplicate email fails and does not mutate the session", func(t *testing.T) {
		mgr, slot, _ := setup(t)
		_, err := mgr.Register(ctx, user.NewUser{
			Name:     "Impostor",
			Email:    "student@elearn.test",
			Password: "S0me-pass!",
		})
		assert.Error(t, err)
		assert.Empty(t, slot.id)
		_, ok := mgr.Current()
		assert.False(t, ok)
	})
}

func TestManagerLogoutIsTotal(t *testing.T) {
	ctx := context.Background()

	t.Run("from present", func(t *testing.T) {
		mgr, slot, _ := setup(t)
		_, err := mgr.Login(ctx, "student@elearn.test", "S0me-pass!")
		assert.NoError(t, err)
		mgr.Logout()
		_, ok := mgr.Current()
		assert.False(t, ok)
		assert.Empty(t, slot.id)
	})

	t.Run("from absent", func(t *testing.T) {
		mgr, slot, _ := setup(t)
		mgr.Logout()
		_, ok := mgr.Current()
		assert.False(t, ok)
		assert.Empty(t, slot.id)
	})
}
