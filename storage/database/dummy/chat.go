package dummydb

import (
	"context"
	"sort"

	"github.com/somaedu/soma/core/chat"
)

type chatRepository struct {
	db *chatTable
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(db *DB) chat.Repository {
	return &chatRepository{db: db.chat}
}

func (repo *chatRepository) CreateMessage(_ context.Context, msg chat.Message) (chat.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[msg.ID] = &msg
	return msg, nil
}

func (repo *chatRepository) QueryMessagesBySubject(_ context.Context, subjectID string) ([]chat.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	msgs := make([]chat.Message, 0)
	for _, msg := range repo.db.table {
		if msg.SubjectID == subjectID {
			msgs = append(msgs, *msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (repo *chatRepository) DeleteMessagesBySubject(_ context.Context, subjectID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, msg := range repo.db.table {
		if msg.SubjectID == subjectID {
			delete(repo.db.table, id)
		}
	}
	return nil
}
