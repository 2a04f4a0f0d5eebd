package trialclass_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/program"
	"github.com/trezcool/elimu/core/trialclass"
	"github.com/trezcool/elimu/storage/database/inmem"
)

type mailRecorder struct {
	sent []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	mail := new(mailRecorder)
	titles := map[string]string{"p1": "Guitar 101"}
	svc := trialclass.NewService(inmemdb.NewTrialClassRepository(db), mail, func(_ context.Context, id string) (string, error) {
		if id == "down" {
			return "", errors.New("connection reset by peer")
		}
		if title, ok := titles[id]; ok {
			return title, nil
		}
		return "", program.ErrNotFound
	})

	reg, err := svc.Register(ctx, trialclass.NewRegistration{ProgramID: "p1", Name: "Ann", Email: "ann@test.cd", PreferredDate: "2031-05-04"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, time.Date(2031, 5, 4, 0, 0, 0, 0, time.UTC), reg.PreferredDate)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "trial_class_registered", mail.sent[0].TemplateName)
	assert.Equal(t, "Guitar 101", mail.sent[0].TemplateData.(map[string]string)["ProgramTitle"])

	_, err = svc.Register(ctx, trialclass.NewRegistration{ProgramID: "p2", Name: "Ann", Email: "ann@test.cd"})
	var vErr *core.ValidationError
	if assert.True(t, errors.As(err, &vErr), "%v", err) {
		assert.Equal(t, []core.FieldError{{Field: "program_id", Error: "program not found"}}, vErr.Fields)
	}

	_, err = svc.Register(ctx, trialclass.NewRegistration{ProgramID: "down", Name: "Ann", Email: "ann@test.cd"})
	assert.EqualError(t, err, "failed to register trial class: connection reset by peer")

	db.FailRegistrationWrites(errors.New("duplicate key value violates unique constraint"))
	_, err = svc.Register(ctx, trialclass.NewRegistration{Name: "Bob", Email: "bob@test.cd"})
	assert.EqualError(t, err, "failed to register trial class: duplicate key value violates unique constraint")
	assert.Len(t, mail.sent, 1)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewRegistration_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	today := time.Date(2030, 1, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		reg     trialclass.NewRegistration
		wantErr bool
	}{
		{name: "valid", reg: trialclass.NewRegistration{Name: " Ann ", Email: "ANN@test.cd", Phone: "+243810000000", PreferredDate: "2030-01-10"}},
		{name: "name required", reg: trialclass.NewRegistration{Name: "   ", Email: "ann@test.cd"}, wantErr: true},
		{name: "invalid email", reg: trialclass.NewRegistration{Name: "Ann", Email: "ann"}, wantErr: true},
		{name: "invalid phone", reg: trialclass.NewRegistration{Name: "Ann", Email: "ann@test.cd", Phone: "call me"}, wantErr: true},
		{name: "invalid date", reg: trialclass.NewRegistration{Name: "Ann", Email: "ann@test.cd", PreferredDate: "10/01/2030"}, wantErr: true},
		{name: "past date", reg: trialclass.NewRegistration{Name: "Ann", Email: "ann@test.cd", PreferredDate: "2030-01-09"}, wantErr: true},
		{name: "invalid program", reg: trialclass.NewRegistration{Name: "Ann", Email: "ann@test.cd", ProgramID: "lol"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate(validate, today)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ann", tt.reg.Name)
			assert.Equal(t, "ann@test.cd", tt.reg.Email)
		})
	}
}
