package session

import (
	"context"

	"github.com/somaedu/soma/core/user"
)

// serviceResolver authenticates against the user service (the server-backed
// build variant).
type serviceResolver struct {
	svc user.ServiceInterface
}

var _ Resolver = (*serviceResolver)(nil)

func NewServiceResolver(svc user.ServiceInterface) Resolver {
	return &serviceResolver{svc: svc}
}

func (r *serviceResolver) ResolveByID(ctx context.Context, id string) (user.User, error) {
	return r.svc.GetByID(ctx, id)
}

func (r *serviceResolver) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	usr, err := r.svc.GetByUsernameOrEmail(ctx, email)
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, ErrBadCredentials
		}
		return user.User{}, err
	}
	if err := usr.CheckPassword(password); err != nil {
		return user.User{}, ErrBadCredentials
	}
	if !usr.Active() {
		return user.User{}, ErrBadCredentials
	}
	return r.svc.SetLastLogin(ctx, usr)
}

func (r *serviceResolver) Register(ctx context.Context, nu user.NewUser) (user.User, error) {
	return r.svc.Register(ctx, nu)
}
