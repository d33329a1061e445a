package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

// sortColumns whitelists the sortable fields; keys match the JSON field
// names the query string uses.
var sortColumns = map[string]string{
	"id":        "id",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom == nil {
		return fn()
	}

	return r.prom.ObserveDB(op, fn)
}

// RegisterBootstrap inserts a self-registered user. The role is decided
// inside the statement: Superadmin when the table is empty at insert time,
// User otherwise, so "is the store empty" and the insert are one
// round-trip. Two concurrent first registrations can still both observe an
// empty table; the unique email constraint is the only backstop and the
// window is accepted.
func (r *UsersRepo) RegisterBootstrap(ctx context.Context, id, email, passwordHash string) (user.User, error) {
	var u user.User

	err := r.observe("users.register", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
			 VALUES ($1, $2, $3,
			         CASE WHEN (SELECT count(*) FROM users) = 0 THEN 'Superadmin' ELSE 'User' END,
			         now(), now())
			 RETURNING id, email, password_hash, role, created_by, created_at, updated_at`,
			id, email, passwordHash,
		).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedBy, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

// Create inserts a user with an explicit role. createdBy is nil unless an
// Admin is creating a scoped account.
func (r *UsersRepo) Create(ctx context.Context, id, email, passwordHash string, role user.Role, createdBy *string) (user.User, error) {
	var u user.User

	err := r.observe("users.create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO users (id, email, password_hash, role, created_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, now(), now())
			 RETURNING id, email, password_hash, role, created_by, created_at, updated_at`,
			id, email, passwordHash, role, createdBy,
		).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedBy, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getBy(ctx, "users.get_by_email", "email", email)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getBy(ctx, "users.get_by_id", "id", id)
}

func (r *UsersRepo) getBy(ctx context.Context, op, column, value string) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, email, password_hash, role, created_by, created_at, updated_at
			 FROM users
			 WHERE `+column+` = $1`,
			value,
		).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedBy, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

// List returns one page plus the total row count for the same filter. The
// total rides along as a window aggregate; when the page lands past the
// last row a separate Count keeps the total accurate.
func (r *UsersRepo) List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error) {
	column, ok := sortColumns[filter.Sort]
	if !ok {
		column = "created_at"
	}

	dir := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		dir = "ASC"
	}

	query := `SELECT id, email, password_hash, role, created_by, created_at, updated_at,
		COUNT(*) OVER() AS total
	FROM users`

	var args []interface{}
	argsPosition := 1

	if filter.CreatedBy != nil {
		query += fmt.Sprintf(" WHERE created_by = $%d", argsPosition)
		args = append(args, *filter.CreatedBy)
		argsPosition++
	}

	// secondary id sort keeps pages stable under equal keys
	query += fmt.Sprintf(" ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d", column, dir, argsPosition, argsPosition+1)
	args = append(args, filter.Limit(), filter.Start)

	var output []user.User
	total := 0

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		output = make([]user.User, 0, filter.Limit())

		for rows.Next() {
			var u user.User
			var t int

			err = rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedBy, &u.CreatedAt, &u.UpdatedAt, &t)

			if err != nil {
				return err
			}

			total = t
			output = append(output, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	if len(output) == 0 {
		total, err = r.Count(ctx, filter.CreatedBy)
		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *UsersRepo) Count(ctx context.Context, createdBy *string) (int, error) {
	query := `SELECT count(*) FROM users`
	var args []interface{}

	if createdBy != nil {
		query += ` WHERE created_by = $1`
		args = append(args, *createdBy)
	}

	var total int

	err := r.observe("users.count", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(&total)
	})

	if err != nil {
		return 0, err
	}

	return total, nil
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id string, role user.Role) error {
	return r.updateRole(ctx, "users.update_role",
		`UPDATE users SET role = $1, updated_at = now() WHERE id = $2`,
		role, id)
}

// UpdateRoleByCreator mutates the role only when the target exists AND was
// created by creatorID. A target under another creator is indistinguishable
// from a missing one, so existence never leaks across admin scopes.
func (r *UsersRepo) UpdateRoleByCreator(ctx context.Context, id, creatorID string, role user.Role) error {
	return r.updateRole(ctx, "users.update_role_scoped",
		`UPDATE users SET role = $1, updated_at = now() WHERE id = $2 AND created_by = $3`,
		role, id, creatorID)
}

func (r *UsersRepo) updateRole(ctx context.Context, op, query string, args ...interface{}) error {
	var tag pgconn.CommandTag

	err := r.observe(op, func() error {
		var err error
		tag, err = r.pool.Exec(ctx, query, args...)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Delete is a hard delete; a second call for the same id reports not found.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("users.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
