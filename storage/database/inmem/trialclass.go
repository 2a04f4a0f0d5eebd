package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core/trialclass"
)

type trialClassRepository struct {
	db *registrationTable
}

var _ trialclass.Repository = (*trialClassRepository)(nil)

func NewTrialClassRepository(db *DB) trialclass.Repository {
	return &trialClassRepository{db: db.registration}
}

func (repo *trialClassRepository) CreateRegistration(_ context.Context, reg trialclass.Registration) (trialclass.Registration, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.failWith != nil {
		return trialclass.Registration{}, repo.db.failWith
	}
	reg.ID = uuid.New().String()
	repo.db.rows = append(repo.db.rows, reg)
	return reg, nil
}

func (repo *trialClassRepository) QueryRegistrations(_ context.Context, limit int) ([]trialclass.Registration, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	n := len(repo.db.rows)
	if limit > 0 && limit < n {
		n = limit
	}
	regs := make([]trialclass.Registration, 0, n)
	for i := len(repo.db.rows) - 1; i >= 0 && len(regs) < n; i-- {
		regs = append(regs, repo.db.rows[i])
	}
	return regs, nil
}

func (repo *trialClassRepository) CountRegistrations(_ context.Context) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.rows), nil
}
