package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/category"
)

type categoryRepository struct {
	db *sqlx.DB
}

var _ category.Repository = (*categoryRepository)(nil)

func NewCategoryRepository(db *sqlx.DB) *categoryRepository {
	return &categoryRepository{db: db}
}

func (repo categoryRepository) CheckNameUniqueness(ctx context.Context, name string) error {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM category WHERE LOWER(name) = LOWER($1))`
	if err := repo.db.GetContext(ctx, &exists, q, name); err != nil {
		return errors.Wrap(err, "checking category uniqueness")
	}
	if exists {
		return category.ErrNameExists
	}
	return nil
}

func (repo categoryRepository) CreateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	cat.ID = uuid.New().String()
	cat.CreatedAt = cat.CreatedAt.UTC()
	q := `INSERT INTO category (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, cat); err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return category.Category{}, category.ErrNameExists
		}
		return category.Category{}, errors.Wrap(err, "inserting category")
	}
	return cat, nil
}

func (repo categoryRepository) QueryCategories(ctx context.Context) ([]category.Category, error) {
	cats := make([]category.Category, 0)
	if err := repo.db.SelectContext(ctx, &cats, `SELECT id, name, created_at FROM category ORDER BY lower(name) ASC, name ASC`); err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	return cats, nil
}

func (repo categoryRepository) GetCategory(ctx context.Context, id string) (category.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return category.Category{}, category.ErrNotFound
	}
	var cat category.Category
	if err := repo.db.GetContext(ctx, &cat, `SELECT id, name, created_at FROM category WHERE id = $1`, id); err != nil {
		return category.Category{}, trapNoRowsErr(err, category.ErrNotFound, "getting category")
	}
	return cat, nil
}

func (repo categoryRepository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return category.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM category WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting category")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return category.ErrNotFound
	}
	return nil
}

func (repo categoryRepository) CountCategories(ctx context.Context) (int, error) {
	var n int
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM category`); err != nil {
		return 0, errors.Wrap(err, "counting categories")
	}
	return n, nil
}
