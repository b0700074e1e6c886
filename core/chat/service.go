package chat

import (
	"context"
	"errors"
	"time"

	"github.com/somaedu/soma/core"
)

var (
	// errors
	ErrNotFound = errors.New("message not found")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// QueryMessagesBySubject returns a subject's messages ordered by
		// creation time, oldest first.
		QueryMessagesBySubject(ctx context.Context, subjectID string) ([]Message, error)
		DeleteMessagesBySubject(ctx context.Context, subjectID string) error
	}

	ServiceInterface interface {
		Post(ctx context.Context, nm NewMessage) (Message, error)
		QueryBySubject(ctx context.Context, subjectID string) ([]Message, error)
		Subscribe(subjectID string) *Subscription
	}

	Service struct {
		repo Repository
		hub  *Hub
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, hub *Hub) *Service {
	return &Service{repo: repo, hub: hub}
}

// Post persists the message, then broadcasts it on the subject's discussion
// topic. The broadcast happens strictly after the write commits.
func (svc *Service) Post(ctx context.Context, nm NewMessage) (Message, error) {
	msg := Message{
		ID:          core.NewID(),
		SubjectID:   nm.SubjectID,
		AuthorID:    nm.AuthorID,
		AuthorName:  nm.AuthorName,
		AuthorRoles: nm.AuthorRoles,
		Body:        nm.Body,
		CreatedAt:   time.Now().UTC(),
	}
	msg, err := svc.repo.CreateMessage(ctx, msg)
	if err != nil {
		return Message{}, err
	}
	svc.hub.Publish(Topic(msg.SubjectID), msg)
	return msg, nil
}

func (svc *Service) QueryBySubject(ctx context.Context, subjectID string) ([]Message, error) {
	return svc.repo.QueryMessagesBySubject(ctx, subjectID)
}

func (svc *Service) Subscribe(subjectID string) *Subscription {
	return svc.hub.Subscribe(Topic(subjectID))
}
