package trialclass

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/program"
)

// registerErrPrefix prefixes every error returned by Service.Register.
const registerErrPrefix = "failed to register trial class"

type (
	Repository interface {
		CreateRegistration(ctx context.Context, reg Registration) (Registration, error)
		// QueryRegistrations returns the latest registrations first; limit <= 0 means no limit.
		QueryRegistrations(ctx context.Context, limit int) ([]Registration, error)
		CountRegistrations(ctx context.Context) (int, error)
	}

	// ProgramTitler resolves a program's title for the confirmation email.
	// It returns program.ErrNotFound when trial classes cannot be booked for the program.
	ProgramTitler func(ctx context.Context, id string) (string, error)

	Service struct {
		repo         Repository
		mailSvc      core.EmailService
		programTitle ProgramTitler
	}
)

func NewService(repo Repository, mailSvc core.EmailService, programTitle ProgramTitler) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, programTitle: programTitle}
}

// Register inserts the registration and emails a confirmation to the registrant.
// An unknown program is a validation error on "program_id".
// A store failure is returned as "failed to register trial class: <original message>".
func (svc *Service) Register(ctx context.Context, nr NewRegistration) (Registration, error) {
	date, err := nr.preferredDate()
	if err != nil {
		return Registration{}, errors.Wrap(err, registerErrPrefix)
	}

	var title string
	if nr.ProgramID != "" && svc.programTitle != nil {
		if title, err = svc.programTitle(ctx, nr.ProgramID); err != nil {
			if errors.Cause(err) == program.ErrNotFound {
				return Registration{}, core.NewValidationError(err, core.FieldError{Field: "program_id", Error: err.Error()})
			}
			return Registration{}, errors.Wrap(err, registerErrPrefix)
		}
	}

	reg, err := svc.repo.CreateRegistration(ctx, Registration{
		ProgramID:     nr.ProgramID,
		Name:          nr.Name,
		Email:         nr.Email,
		Phone:         nr.Phone,
		PreferredDate: date,
		Message:       nr.Message,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return Registration{}, errors.Wrap(err, registerErrPrefix)
	}

	svc.sendConfirmationMail(reg, title)
	return reg, nil
}

func (svc *Service) sendConfirmationMail(reg Registration, programTitle string) {
	var date string
	if !reg.PreferredDate.IsZero() {
		date = reg.PreferredDate.Format("Monday, January 2, 2006")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: reg.Name, Address: reg.Email}},
		Subject:      "Your trial class registration",
		TemplateName: "trial_class_registered",
		TemplateData: map[string]string{
			"Name":          reg.Name,
			"ProgramTitle":  programTitle,
			"PreferredDate": date,
		},
	})
}

func (svc *Service) Latest(ctx context.Context, limit int) ([]Registration, error) {
	return svc.repo.QueryRegistrations(ctx, limit)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountRegistrations(ctx)
}
