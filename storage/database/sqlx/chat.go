package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/chat"
)

type chatRepository struct {
	db *sqlx.DB
}

var _ chat.Repository = (*chatRepository)(nil)

func NewChatRepository(db *sqlx.DB) *chatRepository {
	return &chatRepository{db: db}
}

func (repo chatRepository) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	msg.ID = uuid.New().String()
	msg.CreatedAt = msg.CreatedAt.UTC()
	q := `INSERT INTO chat_message (id, user_id, user_name, body, created_at)
		VALUES (:id, :user_id, :user_name, :body, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, msg); err != nil {
		return chat.Message{}, errors.Wrap(err, "inserting chat message")
	}
	return msg, nil
}

func (repo chatRepository) QueryMessages(ctx context.Context, limit int) ([]chat.Message, error) {
	msgs := make([]chat.Message, 0, limit)
	q := `SELECT id, user_id, user_name, body, created_at FROM (
			SELECT * FROM chat_message ORDER BY created_at DESC LIMIT $1
		) latest ORDER BY created_at ASC`
	if err := repo.db.SelectContext(ctx, &msgs, q, limit); err != nil {
		return nil, errors.Wrap(err, "querying chat messages")
	}
	return msgs, nil
}
