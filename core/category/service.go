package category

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	// errors
	ErrNotFound   = errors.New("category not found")
	ErrNameExists = errors.New("a category with this name already exists")
)

type (
	Repository interface {
		// CheckNameUniqueness returns ErrNameExists if a category with the same name
		// (case-insensitive) already exists.
		CheckNameUniqueness(ctx context.Context, name string) error
		CreateCategory(ctx context.Context, cat Category) (Category, error)
		// QueryCategories returns all categories sorted by name, ascending.
		QueryCategories(ctx context.Context) ([]Category, error)
		GetCategory(ctx context.Context, id string) (Category, error)
		DeleteCategory(ctx context.Context, id string) error
		CountCategories(ctx context.Context) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(name string) error {
	if err := svc.repo.CheckNameUniqueness(context.Background(), name); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return errors.Wrap(err, "checking category uniqueness")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCategory) (Category, error) {
	return svc.repo.CreateCategory(ctx, Category{
		Name:      nc.Name,
		CreatedAt: time.Now().UTC(),
	})
}

// QueryAll returns every category ordered alphabetically by name.
func (svc *Service) QueryAll(ctx context.Context) ([]Category, error) {
	cats, err := svc.repo.QueryCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	return cats, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Category, error) {
	if id == "" {
		return Category{}, ErrNotFound
	}
	return svc.repo.GetCategory(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCategory(ctx, id)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountCategories(ctx)
}

// EnsureExist creates the categories in `names` that do not exist yet.
// It returns the number of created categories.
func (svc *Service) EnsureExist(ctx context.Context, names ...string) (int, error) {
	existing, err := svc.QueryAll(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, cat := range existing {
		known[strings.ToLower(cat.Name)] = struct{}{}
	}

	var created int
	for _, name := range names {
		name = core.CleanString(name)
		key := strings.ToLower(name)
		if _, ok := known[key]; ok || name == "" {
			continue
		}
		if _, err := svc.Create(ctx, NewCategory{Name: name}); err != nil {
			return created, errors.Wrapf(err, "creating category %q", name)
		}
		known[key] = struct{}{}
		created++
	}
	return created, nil
}
