package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookkeeper/internal/core"
)

const categoryColumns = `id, user_id, write_time, type, name`

var generateCategoryID = func() (string, error) {
	return GenerateID(CategoryIDLength)
}

type CreateCategoryParams struct {
	ID     string
	UserID int64
	Type   core.BillType
	Name   string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO category (id, user_id, type, name) VALUES (?, ?, ?, ?)`,
		arg.ID, arg.UserID, int(arg.Type), arg.Name)
	return err
}

func (q *Queries) GetCategory(ctx context.Context, id string) (core.Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM category WHERE id = ?`, id)
	return scanCategory(row)
}

func (q *Queries) ListCategories(ctx context.Context, userID int64, typ *core.BillType) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM category WHERE user_id = ?`
	args := []interface{}{userID}
	if typ != nil {
		query += ` AND type = ?`
		args = append(args, int(*typ))
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindCategoryByName returns the category named name for userID, if any.
func (q *Queries) FindCategoryByName(ctx context.Context, userID int64, name string) (core.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM category WHERE user_id = ? AND name = ?`, userID, name)
	return scanCategory(row)
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c     core.Category
		wrote int64
		typ   int
	)
	if err := row.Scan(&c.ID, &c.UserID, &wrote, &typ, &c.Name); err != nil {
		return core.Category{}, err
	}
	c.WriteTime = time.Unix(wrote, 0)
	c.Type = core.BillType(typ)
	return c, nil
}

// SaveCategory creates a category for userID and returns its generated id.
// A duplicate name for the user fails with core.ErrConstraintViolation, an
// unknown user with core.ErrForeignKeyViolation.
func (r *SQLiteRepository) SaveCategory(ctx context.Context, userID int64, c core.NewCategory) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	id, err := r.createCategory(ctx, r.queries, userID, c)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Category saved", "id", id, "user_id", userID, "name", c.Name, "type", c.Type.String())
	return id, nil
}

// createCategory inserts with a fresh id, drawing a new one when the id is
// already taken. Duplicate names are not retried.
func (r *SQLiteRepository) createCategory(ctx context.Context, q *Queries, userID int64, c core.NewCategory) (string, error) {
	for attempt := 0; ; attempt++ {
		id, err := generateCategoryID()
		if err != nil {
			return "", fmt.Errorf("generate category id: %w", err)
		}

		err = q.CreateCategory(ctx, CreateCategoryParams{ID: id, UserID: userID, Type: c.Type, Name: c.Name})
		if err == nil {
			return id, nil
		}
		if isPrimaryKeyConflict(err) && attempt < r.idRetries {
			slog.WarnContext(ctx, "Category id collision, retrying", "id", id, "attempt", attempt+1)
			continue
		}
		return "", fmt.Errorf("create category %q: %w", c.Name, classify(err))
	}
}

// GetCategory returns a single category by id.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, err := r.queries.GetCategory(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	c.WriteTime = c.WriteTime.In(r.loc)
	return c, nil
}

// FindCategories returns the category matching f.ID, or every category of
// f.UserID optionally restricted to f.Type. Row order is not guaranteed.
func (r *SQLiteRepository) FindCategories(ctx context.Context, f core.CategoryFilter) ([]core.Category, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.ID != "" {
		c, err := r.GetCategory(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		return []core.Category{c}, nil
	}

	cats, err := r.queries.ListCategories(ctx, f.UserID, f.Type)
	if err != nil {
		return nil, fmt.Errorf("list categories of user %d: %w", f.UserID, err)
	}
	for i := range cats {
		cats[i].WriteTime = cats[i].WriteTime.In(r.loc)
	}
	return cats, nil
}
