// Package sqlxrepos implements the core repositories on top of PostgreSQL.
package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const uniqueViolation = "23505"

// Repositories groups every repository sharing the same database.
type Repositories struct {
	User       *userRepository
	Category   *categoryRepository
	Program    *programRepository
	TrialClass *trialClassRepository
	Chat       *chatRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Category:   NewCategoryRepository(db),
		Program:    NewProgramRepository(db),
		TrialClass: NewTrialClassRepository(db),
		Chat:       NewChatRepository(db),
	}
}

// trapNoRowsErr maps the "no rows" err to notFound
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// uniqueConstraint returns the violated unique constraint name, if err is a unique violation.
func uniqueConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
