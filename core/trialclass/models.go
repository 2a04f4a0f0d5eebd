package trialclass

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

const DateLayout = "2006-01-02"

type Registration struct {
	ID            string    `json:"id"`
	ProgramID     string    `json:"program_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	PreferredDate time.Time `json:"preferred_date"` // zero if unset
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// NewRegistration is the public trial class form.
type NewRegistration struct {
	ProgramID     string `json:"program_id" form:"program_id" validate:"omitempty,uuid"`
	Name          string `json:"name" form:"name" validate:"required,notblank,max=100"`
	Email         string `json:"email" form:"email" validate:"required,email"`
	Phone         string `json:"phone" form:"phone" validate:"omitempty,phone"`
	PreferredDate string `json:"preferred_date" form:"preferred_date" validate:"omitempty,datetime=2006-01-02"`
	Message       string `json:"message" form:"message" validate:"max=1000"`
}

// Validate cleans & validates the form. `today` is the first acceptable preferred date.
func (nr *NewRegistration) Validate(validate *validator.Validate, today time.Time) error {
	nr.ProgramID = core.CleanString(nr.ProgramID)
	nr.Name = core.CleanString(nr.Name)
	nr.Email = core.CleanString(nr.Email, true /* lower */)
	nr.Phone = core.CleanString(nr.Phone)
	nr.PreferredDate = core.CleanString(nr.PreferredDate)
	nr.Message = core.CleanString(nr.Message)

	if err := validate.Struct(nr); err != nil {
		return err
	}
	if date, _ := nr.preferredDate(); !date.IsZero() {
		y, m, d := today.Date()
		if date.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
			return core.NewValidationError(nil, core.FieldError{
				Field: "preferred_date",
				Error: "preferred date cannot be in the past",
			})
		}
	}
	return nil
}

func (nr *NewRegistration) preferredDate() (time.Time, error) {
	if nr.PreferredDate == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, nr.PreferredDate, time.UTC)
}
