package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core/program"
)

type programRepository struct {
	db         *programTable
	categories *categoryTable
}

var _ program.Repository = (*programRepository)(nil)

func NewProgramRepository(db *DB) program.Repository {
	return &programRepository{db: db.program, categories: db.category}
}

// withCategory resolves the category name like the SQL join does.
func (repo *programRepository) withCategory(prog program.Program) program.Program {
	repo.categories.RLock()
	defer repo.categories.RUnlock()

	prog.CategoryName = ""
	if cat, ok := repo.categories.table[prog.CategoryID]; ok {
		prog.CategoryName = cat.Name
	} else {
		prog.CategoryID = ""
	}
	return prog
}

func (repo *programRepository) CreateProgram(_ context.Context, prog program.Program) (program.Program, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prog.ID = uuid.New().String()
	repo.db.table[prog.ID] = &prog
	return repo.withCategory(prog), nil
}

func (repo *programRepository) filter(filter program.QueryFilter) []program.Program {
	progs := make([]program.Program, 0, len(repo.db.table))
	for _, prog := range repo.db.table {
		if filter.TeacherID != "" && prog.TeacherID != filter.TeacherID {
			continue
		}
		if filter.PublishedOnly && !prog.IsPublished {
			continue
		}
		progs = append(progs, *prog)
	}
	return progs
}

func (repo *programRepository) QueryPrograms(_ context.Context, filter program.QueryFilter) ([]program.Program, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	progs := repo.filter(filter)
	for i := range progs {
		progs[i] = repo.withCategory(progs[i])
	}
	sort.Slice(progs, func(i, j int) bool { return progs[i].CreatedAt.After(progs[j].CreatedAt) })
	return progs, nil
}

func (repo *programRepository) GetProgram(_ context.Context, id string) (program.Program, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prog, ok := repo.db.table[id]; ok {
		return repo.withCategory(*prog), nil
	}
	return program.Program{}, program.ErrNotFound
}

func (repo *programRepository) UpdateProgram(_ context.Context, prog program.Program) (program.Program, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[prog.ID]; !ok {
		return program.Program{}, program.ErrNotFound
	}
	repo.db.table[prog.ID] = &prog
	return repo.withCategory(prog), nil
}

func (repo *programRepository) CountPrograms(_ context.Context, filter program.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}
