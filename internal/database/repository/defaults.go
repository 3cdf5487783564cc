package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// SeedDefaults ensures baseline waste categories exist for new databases.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	catRepo := NewCategoryRepo(db)
	existing, err := catRepo.ListAll(ctx)
	if err == nil && len(existing) > 0 {
		return nil
	}
	defaults := []string{
		"Vaisselle",
		"DEEE",
		"Textile",
		"Mobilier",
		"Livres",
		"Jouets",
		"Vélos",
		"Métaux",
		"Bois",
		"Cartons",
		"Déchets ultimes",
	}
	for idx, name := range defaults {
		cat := Category{
			ID:        DeterministicCategoryID(name),
			Name:      name,
			Active:    true,
			SortOrder: idx,
		}
		if err := catRepo.Upsert(ctx, cat); err != nil {
			return err
		}
	}
	return nil
}

// DeterministicCategoryID derives a stable UUID from a category name so
// repeated seeding never duplicates rows.
func DeterministicCategoryID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("cat:"+name)).String()
}
