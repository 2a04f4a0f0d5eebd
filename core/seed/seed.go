// Package seed fills a fresh database with the data the platform needs to be usable.
package seed

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/category"
)

var DefaultCategories = []string{
	"Accounting",
	"Computer Science",
	"Engineering",
	"Filming",
	"Fitness",
	"Music",
	"Photography",
}

// Action is a seeding action.
type Action func(ctx context.Context) error

// Seeder runs its action at most once during its lifetime.
type Seeder struct {
	action Action

	mu    sync.Mutex
	fired bool
}

func NewSeeder(action Action) *Seeder {
	return &Seeder{action: action}
}

// Run fires the action unless it already fired, in which case it returns false.
// The seeder is marked as fired before the action runs: a failed action is not retried.
func (s *Seeder) Run(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return false, nil
	}
	s.fired = true
	s.mu.Unlock()

	if err := s.action(ctx); err != nil {
		return true, errors.Wrap(err, "seeding")
	}
	return true, nil
}

// Fired reports whether the action already fired.
func (s *Seeder) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// Categories returns the action creating the DefaultCategories that are missing.
func Categories(svc *category.Service, logger core.Logger) Action {
	return func(ctx context.Context) error {
		n, err := svc.EnsureExist(ctx, DefaultCategories...)
		if err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("seeded %d categories", n))
		return nil
	}
}
