package localstore

import (
	"context"
	"strings"
	"time"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/session"
	"github.com/somaedu/soma/core/user"
)

// Resolver resolves and authenticates identities against the local store; the
// demo/offline portal mode runs entirely on it.
type Resolver struct {
	s *Store
}

var _ session.Resolver = (*Resolver)(nil)

func NewResolver(s *Store) *Resolver {
	return &Resolver{s: s}
}

func (r *Resolver) ResolveByID(_ context.Context, id string) (user.User, error) {
	usr, err := r.s.Users().Get(id)
	if err == ErrNotFound {
		return user.User{}, user.ErrNotFound
	}
	return usr, err
}

func (r *Resolver) Authenticate(_ context.Context, email, password string) (user.User, error) {
	usr, err := r.s.Users().GetByEmail(email)
	if err == ErrNotFound {
		// fall back to username, same as the server login
		usr, err = r.s.Users().GetByUsername(email)
	}
	if err != nil {
		if err == ErrNotFound {
			return user.User{}, session.ErrBadCredentials
		}
		return user.User{}, err
	}
	if err := usr.CheckPassword(password); err != nil {
		return user.User{}, session.ErrBadCredentials
	}
	if !usr.Active() {
		return user.User{}, session.ErrBadCredentials
	}
	usr.LastLogin = time.Now().UTC()
	if err := r.s.Users().Put(usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (r *Resolver) Register(_ context.Context, nu user.NewUser) (user.User, error) {
	roles := nu.Roles
	if len(roles) == 0 {
		roles = []string{user.RoleStudent}
	}
	now := time.Now().UTC()
	usr := user.User{
		ID:        core.NewID(),
		Name:      core.CleanString(nu.Name),
		Username:  core.CleanString(nu.Username, true),
		Email:     strings.ToLower(core.CleanString(nu.Email)),
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(true)
	if err := usr.SetPassword(nu.Password); err != nil {
		return user.User{}, err
	}
	if err := r.s.Users().Add(usr); err != nil {
		if err == ErrDuplicate {
			return user.User{}, core.NewValidationError(user.ErrEmailExists)
		}
		return user.User{}, err
	}
	return usr, nil
}
