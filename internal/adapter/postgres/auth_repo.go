package postgres

import (
	"context"
	"database/sql"
	"errors"

	"meters/internal/domain"
)

var _ domain.UserRepository = (*DB)(nil)

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, username, password_hash, salt, role, created_at FROM users WHERE username = $1",
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user.
func (d *DB) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash, salt, role, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		u.Username, u.PasswordHash, u.Salt, string(u.Role), u.CreatedAt.UTC(),
	).Scan(&u.ID)
	if hasCode(err, codeUniqueViolation) {
		return nil, domain.ErrUserExists
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateRole changes the role of an existing user.
func (d *DB) UpdateRole(ctx context.Context, username string, role domain.Role) error {
	res, err := d.sql.ExecContext(ctx, "UPDATE users SET role = $1 WHERE username = $2", string(role), username)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List returns all users ordered by ID.
func (d *DB) List(ctx context.Context) ([]domain.User, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, username, password_hash, salt, role, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
