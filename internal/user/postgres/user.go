package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frahmantamala/servicebook/internal/user"
	"github.com/jmoiron/sqlx"
)

// UserRepository reads the user directory through sqlx. Queries are written with ? and
// rebound for the driver in use.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

const accountColumns = `id, username, first_name, last_name, password_hash, is_staff, is_active`

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM users WHERE username = ?`, username)
}

func (r *UserRepository) getOne(ctx context.Context, q string, arg interface{}) (*user.Account, error) {
	var a user.Account
	if err := r.db.GetContext(ctx, &a, r.db.Rebind(q), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *UserRepository) GroupNames(ctx context.Context, userID int64) ([]string, error) {
	q := r.db.Rebind(`
		SELECT g.name
		FROM "groups" g
		JOIN user_groups ug ON ug.group_id = g.id
		WHERE ug.user_id = ?
		ORDER BY g.name`)

	names := []string{}
	if err := r.db.SelectContext(ctx, &names, q, userID); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *UserRepository) Create(ctx context.Context, a *user.Account) error {
	q := r.db.Rebind(`
		INSERT INTO users (username, first_name, last_name, password_hash, is_staff, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	return r.db.QueryRowxContext(ctx, q,
		a.Username, a.FirstName, a.LastName, a.PasswordHash, a.IsStaff, a.IsActive,
	).Scan(&a.ID)
}

func (r *UserRepository) EnsureGroup(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`SELECT id FROM "groups" WHERE name = ?`), name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	err = r.db.QueryRowxContext(ctx, r.db.Rebind(`INSERT INTO "groups" (name) VALUES (?) RETURNING id`), name).Scan(&id)
	return id, err
}

func (r *UserRepository) AddToGroup(ctx context.Context, userID, groupID int64) error {
	q := r.db.Rebind(`
		INSERT INTO user_groups (user_id, group_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, group_id) DO NOTHING`)

	_, err := r.db.ExecContext(ctx, q, userID, groupID)
	return err
}
