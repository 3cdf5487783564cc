package repository

import (
	"context"
	"database/sql"
)

// MappingCacheRepo stores resolved category mappings keyed by normalized
// source name. Upserts are last-write-wins; the pipeline assumes
// low-concurrency single-administrator usage (see DESIGN.md).
type MappingCacheRepo struct{ db *sql.DB }

func NewMappingCacheRepo(db *sql.DB) *MappingCacheRepo { return &MappingCacheRepo{db: db} }

// Get returns the cached entry for a normalized name, or nil on a miss.
func (r *MappingCacheRepo) Get(ctx context.Context, normalized string) (*MappingCacheEntry, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT source_name_normalized, category_id, provider, confidence
	FROM category_mapping_cache WHERE source_name_normalized = ?
	`, normalized)
	var e MappingCacheEntry
	if err := row.Scan(&e.SourceNameNormalized, &e.CategoryID, &e.Provider, &e.Confidence); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// Upsert overwrites any prior entry for the same normalized key.
func (r *MappingCacheRepo) Upsert(ctx context.Context, e MappingCacheEntry) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO category_mapping_cache(source_name_normalized, category_id, provider, confidence)
	VALUES(?, ?, ?, ?)
	ON CONFLICT(source_name_normalized) DO UPDATE SET
	 category_id=excluded.category_id,
	 provider=excluded.provider,
	 confidence=excluded.confidence,
	 updated_at=CURRENT_TIMESTAMP;
	`, e.SourceNameNormalized, e.CategoryID, e.Provider, e.Confidence)
	return err
}

// List returns every cache entry, most recently updated first. Used by the
// categories command for operator inspection.
func (r *MappingCacheRepo) List(ctx context.Context) ([]MappingCacheEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT source_name_normalized, category_id, provider, confidence
	FROM category_mapping_cache ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MappingCacheEntry
	for rows.Next() {
		var e MappingCacheEntry
		if err := rows.Scan(&e.SourceNameNormalized, &e.CategoryID, &e.Provider, &e.Confidence); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
