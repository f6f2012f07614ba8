package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bookkeeper/internal/core"
)

func (q *Queries) CreateUser(ctx context.Context, u core.User) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (username, password, role) VALUES (?, ?, ?)`,
		u.Username, u.PasswordHash, u.Role)
	if err != nil {
		return 0, classify(err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, password, create_time, last_login, role FROM users WHERE id = ?`, id)

	var (
		u         core.User
		created   int64
		lastLogin sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &lastLogin, &u.Role); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = time.Unix(created, 0)
	if lastLogin.Valid {
		t := time.Unix(lastLogin.Int64, 0)
		u.LastLoginTime = &t
	}
	return u, nil
}

// SaveUser inserts a user and returns its id. A taken username fails with
// core.ErrConstraintViolation.
func (r *SQLiteRepository) SaveUser(ctx context.Context, u core.User) (int64, error) {
	if strings.TrimSpace(u.Username) == "" {
		return 0, errors.New("empty username")
	}
	id, err := r.queries.CreateUser(ctx, u)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User saved", "id", id, "username", u.Username)
	return id, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := r.queries.GetUser(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("get user %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	u.CreatedAt = u.CreatedAt.In(r.loc)
	return u, nil
}
