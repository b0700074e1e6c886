package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/user"
)

type dbUser struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    time.Time      `db:"last_login"`
}

func (du dbUser) toUser() user.User {
	usr := user.User{
		ID:           du.ID,
		Name:         du.Name,
		Username:     du.Username,
		Email:        du.Email,
		Roles:        du.Roles,
		PasswordHash: du.PasswordHash,
		CreatedAt:    du.CreatedAt,
		UpdatedAt:    du.UpdatedAt,
		LastLogin:    du.LastLogin,
	}
	usr.SetActive(du.IsActive)
	return usr
}

const selectUser = `SELECT id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login FROM "user"`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excludedIDs := pq.StringArray{}
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	check := func(column, value string) (bool, error) {
		if value == "" {
			return false, nil
		}
		var exists bool
		q := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM "user" WHERE %s = $1 AND id <> ALL($2))`, column)
		err := repo.db.GetContext(ctx, &exists, q, value, excludedIDs)
		return exists, err
	}

	if taken, err := check("username", username); err != nil {
		return err
	} else if taken {
		return user.ErrUsernameExists
	}
	if taken, err := check("email", email); err != nil {
		return err
	} else if taken {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Active(), pq.StringArray(usr.Roles),
		usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	)
	return usr, err
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, username = EXCLUDED.username, email = EXCLUDED.email,
		   is_active = EXCLUDED.is_active, roles = EXCLUDED.roles,
		   password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at`,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Active(), pq.StringArray(usr.Roles),
		usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	)
	return usr, err
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []dbUser
	if err := repo.db.SelectContext(ctx, &rows, selectUser+" ORDER BY id"); err != nil {
		return nil, err
	}
	return toUsers(rows), nil
}

func (repo *userRepository) getUser(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	var du dbUser
	err := repo.db.GetContext(ctx, &du, selectUser+" WHERE "+where, args...)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	return du.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, "id = $1", id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "username = $1 AND username <> ''", username)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email = $1 AND email <> ''", email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "(username = $1 OR email = $1) AND $1 <> ''", username)
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %[1]s OR username ILIKE %[1]s OR email ILIKE %[1]s)", p))
	}
	if len(filter.Roles) > 0 {
		var ors []string
		for _, role := range filter.Roles {
			ors = append(ors, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(roles) r WHERE r LIKE %s || '%%')", arg(role)))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = "+arg(*filter.IsActive))
	}
	if !filter.CreatedFrom.IsZero() {
		where = append(where, "created_at >= "+arg(filter.CreatedFrom.UTC()))
	}
	if !filter.CreatedTo.IsZero() {
		where = append(where, "created_at <= "+arg(filter.CreatedTo.UTC()))
	}

	q := selectUser
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(orderings, "created_at DESC")

	var rows []dbUser
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return toUsers(rows), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	// only save set fields
	orig, err := repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		return user.User{}, err
	}
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		orig.SetActive(*isActive)
	}
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	orig.UpdatedAt = usr.UpdatedAt

	_, err = repo.db.ExecContext(ctx,
		`UPDATE "user" SET name = $2, username = $3, email = $4, is_active = $5, roles = $6, password_hash = $7, updated_at = $8 WHERE id = $1`,
		orig.ID, orig.Name, orig.Username, orig.Email, orig.Active(), pq.StringArray(orig.Roles),
		orig.PasswordHash, orig.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}
	return orig, nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, id string, t time.Time) (user.User, error) {
	_, err := repo.db.ExecContext(ctx, `UPDATE "user" SET last_login = $2 WHERE id = $1`, id, t)
	if err != nil {
		return user.User{}, err
	}
	return repo.GetUserByID(ctx, id)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}

func toUsers(rows []dbUser) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, du := range rows {
		users = append(users, du.toUser())
	}
	return users
}

// orderBy renders an ORDER BY clause from the requested orderings, falling
// back to def. Ordering fields come from a server-side whitelist, never from
// raw client input.
func orderBy(orderings []core.DBOrdering, def string) string {
	if len(orderings) == 0 {
		if def == "" {
			return ""
		}
		return " ORDER BY " + def
	}
	parts := make([]string, 0, len(orderings))
	for _, o := range orderings {
		parts = append(parts, o.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
