package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core/trialclass"
)

type registrationRow struct {
	ID            string      `db:"id"`
	ProgramID     null.String `db:"program_id"`
	Name          string      `db:"name"`
	Email         string      `db:"email"`
	Phone         string      `db:"phone"`
	PreferredDate null.Time   `db:"preferred_date"`
	Message       string      `db:"message"`
	CreatedAt     time.Time   `db:"created_at"`
}

type trialClassRepository struct {
	db *sqlx.DB
}

var _ trialclass.Repository = (*trialClassRepository)(nil)

func NewTrialClassRepository(db *sqlx.DB) *trialClassRepository {
	return &trialClassRepository{db: db}
}

func (repo trialClassRepository) CreateRegistration(ctx context.Context, reg trialclass.Registration) (trialclass.Registration, error) {
	reg.ID = uuid.New().String()
	row := registrationRow{
		ID:            reg.ID,
		ProgramID:     null.NewString(reg.ProgramID, reg.ProgramID != ""),
		Name:          reg.Name,
		Email:         reg.Email,
		Phone:         reg.Phone,
		PreferredDate: null.NewTime(reg.PreferredDate, !reg.PreferredDate.IsZero()),
		Message:       reg.Message,
		CreatedAt:     reg.CreatedAt.UTC(),
	}
	q := `INSERT INTO trial_class_registration (id, program_id, name, email, phone, preferred_date, message, created_at)
		VALUES (:id, :program_id, :name, :email, :phone, :preferred_date, :message, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		// the driver message is kept as is; the service adds the context
		return trialclass.Registration{}, err
	}
	return reg, nil
}

func (repo trialClassRepository) QueryRegistrations(ctx context.Context, limit int) ([]trialclass.Registration, error) {
	q := `SELECT id, program_id, name, email, phone, preferred_date, message, created_at
		FROM trial_class_registration ORDER BY created_at DESC`
	args := make([]interface{}, 0, 1)
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	var rows []registrationRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying trial class registrations")
	}
	regs := make([]trialclass.Registration, 0, len(rows))
	for _, r := range rows {
		regs = append(regs, trialclass.Registration{
			ID:            r.ID,
			ProgramID:     r.ProgramID.String,
			Name:          r.Name,
			Email:         r.Email,
			Phone:         r.Phone,
			PreferredDate: r.PreferredDate.Time,
			Message:       r.Message,
			CreatedAt:     r.CreatedAt.UTC(),
		})
	}
	return regs, nil
}

func (repo trialClassRepository) CountRegistrations(ctx context.Context) (int, error) {
	var n int
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM trial_class_registration`); err != nil {
		return 0, errors.Wrap(err, "counting trial class registrations")
	}
	return n, nil
}
