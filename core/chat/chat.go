package chat

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

const historySize = 50

type Message struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	Body      string    `json:"body" db:"body"` // markdown
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

type NewMessage struct {
	Body string `json:"body" form:"body" validate:"required,notblank,max=2000"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Body = core.CleanString(nm.Body)
	return validate.Struct(nm)
}

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// QueryMessages returns the `limit` latest messages, oldest first.
		QueryMessages(ctx context.Context, limit int) ([]Message, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Post(ctx context.Context, author user.User, nm NewMessage) (Message, error) {
	msg, err := svc.repo.CreateMessage(ctx, Message{
		UserID:    author.ID,
		UserName:  author.DisplayName(),
		Body:      nm.Body,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Message{}, errors.Wrap(err, "posting chat message")
	}
	return msg, nil
}

// History returns the latest messages, oldest first.
func (svc *Service) History(ctx context.Context) ([]Message, error) {
	return svc.repo.QueryMessages(ctx, historySize)
}
