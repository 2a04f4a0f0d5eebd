// Package inmemdb implements the core repositories in memory. Used by tests & the "inmem" database engine.
package inmemdb

import (
	"sync"

	"github.com/trezcool/elimu/core/category"
	"github.com/trezcool/elimu/core/chat"
	"github.com/trezcool/elimu/core/program"
	"github.com/trezcool/elimu/core/trialclass"
	"github.com/trezcool/elimu/core/user"
)

type (
	DB struct {
		user         *userTable
		category     *categoryTable
		program      *programTable
		registration *registrationTable
		chat         *chatTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	categoryTable struct {
		sync.RWMutex
		table map[string]*category.Category
		failWith error
	}

	programTable struct {
		sync.RWMutex
		table map[string]*program.Program
	}

	registrationTable struct {
		sync.RWMutex
		rows     []trialclass.Registration
		failWith error
	}

	chatTable struct {
		sync.RWMutex
		rows []chat.Message
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		category:     &categoryTable{table: make(map[string]*category.Category)},
		program:      &programTable{table: make(map[string]*program.Program)},
		registration: &registrationTable{},
		chat:         &chatTable{},
	}
}

// FailCategoryWrites makes category writes fail with err (nil restores them).
func (db *DB) FailCategoryWrites(err error) {
	db.category.Lock()
	db.category.failWith = err
	db.category.Unlock()
}

// FailRegistrationWrites makes trial class registration inserts fail with err (nil restores them).
func (db *DB) FailRegistrationWrites(err error) {
	db.registration.Lock()
	db.registration.failWith = err
	db.registration.Unlock()
}

// Repositories groups every repository sharing the same DB.
type Repositories struct {
	User       user.Repository
	Category   category.Repository
	Program    program.Repository
	TrialClass trialclass.Repository
	Chat       chat.Repository
}

func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Category:   NewCategoryRepository(db),
		Program:    NewProgramRepository(db),
		TrialClass: NewTrialClassRepository(db),
		Chat:       NewChatRepository(db),
	}
}
