package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/somaedu/soma/core/chat"
)

const selectMessage = `SELECT id, subject_id, author_id, author_name, author_roles, body, created_at FROM chat_message`

type dbMessage struct {
	ID          string         `db:"id"`
	SubjectID   string         `db:"subject_id"`
	AuthorID    string         `db:"author_id"`
	AuthorName  string         `db:"author_name"`
	AuthorRoles pq.StringArray `db:"author_roles"`
	Body        string         `db:"body"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (dm dbMessage) toMessage() chat.Message {
	return chat.Message{
		ID:          dm.ID,
		SubjectID:   dm.SubjectID,
		AuthorID:    dm.AuthorID,
		AuthorName:  dm.AuthorName,
		AuthorRoles: dm.AuthorRoles,
		Body:        dm.Body,
		CreatedAt:   dm.CreatedAt,
	}
}

type chatRepository struct {
	db *sqlx.DB
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(db *sqlx.DB) chat.Repository {
	return &chatRepository{db: db}
}

func (repo *chatRepository) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO chat_message (id, subject_id, author_id, author_name, author_roles, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.SubjectID, msg.AuthorID, msg.AuthorName, pq.StringArray(msg.AuthorRoles), msg.Body, msg.CreatedAt,
	)
	return msg, err
}

func (repo *chatRepository) QueryMessagesBySubject(ctx context.Context, subjectID string) ([]chat.Message, error) {
	var rows []dbMessage
	err := repo.db.SelectContext(ctx, &rows, selectMessage+" WHERE subject_id = $1 ORDER BY created_at", subjectID)
	if err != nil {
		return nil, err
	}
	msgs := make([]chat.Message, 0, len(rows))
	for _, dm := range rows {
		msgs = append(msgs, dm.toMessage())
	}
	return msgs, nil
}

func (repo *chatRepository) DeleteMessagesBySubject(ctx context.Context, subjectID string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM chat_message WHERE subject_id = $1`, subjectID)
	return err
}
