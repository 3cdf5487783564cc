package repository

import (
	"context"
	"database/sql"
)

// CategoryRepo handles categories.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Upsert(ctx context.Context, c Category) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(id, name, active, sort_order)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 active=excluded.active,
	 sort_order=excluded.sort_order,
	 updated_at=CURRENT_TIMESTAMP;
	`, c.ID, c.Name, c.Active, c.SortOrder)
	return err
}

// ListActive returns active categories in enumeration order. Archived
// categories are excluded from matching and prompt construction.
func (r *CategoryRepo) ListActive(ctx context.Context) ([]Category, error) {
	return r.list(ctx, `SELECT id, name, active, sort_order FROM categories WHERE active = 1 ORDER BY sort_order, name`)
}

// ListAll returns every category including archived ones.
func (r *CategoryRepo) ListAll(ctx context.Context) ([]Category, error) {
	return r.list(ctx, `SELECT id, name, active, sort_order FROM categories ORDER BY sort_order, name`)
}

func (r *CategoryRepo) list(ctx context.Context, query string) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get returns one category by id, or nil when absent.
func (r *CategoryRepo) Get(ctx context.Context, id string) (*Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, active, sort_order FROM categories WHERE id = ?`, id)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Active, &c.SortOrder); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Archive marks a category inactive without deleting it.
func (r *CategoryRepo) Archive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE categories SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}
