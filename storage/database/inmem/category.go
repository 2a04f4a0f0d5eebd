package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core/category"
)

type categoryRepository struct {
	db *categoryTable
}

var _ category.Repository = (*categoryRepository)(nil)

func NewCategoryRepository(db *DB) category.Repository {
	return &categoryRepository{db: db.category}
}

func (repo *categoryRepository) CheckNameUniqueness(_ context.Context, name string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, cat := range repo.db.table {
		if strings.EqualFold(cat.Name, name) {
			return category.ErrNameExists
		}
	}
	return nil
}

func (repo *categoryRepository) CreateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	if err := repo.CheckNameUniqueness(ctx, cat.Name); err != nil {
		return category.Category{}, err
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.failWith != nil {
		return category.Category{}, repo.db.failWith
	}
	cat.ID = uuid.New().String()
	repo.db.table[cat.ID] = &cat
	return cat, nil
}

func (repo *categoryRepository) QueryCategories(_ context.Context) ([]category.Category, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	cats := make([]category.Category, 0, len(repo.db.table))
	for _, cat := range repo.db.table {
		cats = append(cats, *cat)
	}
	// same order as the sqlx repository: lower(name), then name
	sort.Slice(cats, func(i, j int) bool {
		li, lj := strings.ToLower(cats[i].Name), strings.ToLower(cats[j].Name)
		if li != lj {
			return li < lj
		}
		return cats[i].Name < cats[j].Name
	})
	return cats, nil
}

func (repo *categoryRepository) GetCategory(_ context.Context, id string) (category.Category, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cat, ok := repo.db.table[id]; ok {
		return *cat, nil
	}
	return category.Category{}, category.ErrNotFound
}

func (repo *categoryRepository) DeleteCategory(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.failWith != nil {
		return repo.db.failWith
	}
	if _, ok := repo.db.table[id]; !ok {
		return category.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *categoryRepository) CountCategories(_ context.Context) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.table), nil
}
