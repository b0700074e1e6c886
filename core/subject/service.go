package subject

import (
	"context"
	"errors"
	"time"

	"github.com/somaedu/soma/core"
)

var (
	// errors
	ErrNotFound   = errors.New("subject not found")
	ErrNameExists = errors.New("a subject with this name already exists")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excluded ...Subject) error
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		QueryAllSubjects(ctx context.Context) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		// DeleteSubjectsByID removes subjects and cascades to their
		// materials, quizzes, questions, answers and discussion messages.
		DeleteSubjectsByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		CheckUniqueness(name string, excluded ...Subject) error
		Create(ctx context.Context, ns NewSubject) (Subject, error)
		QueryAll(ctx context.Context) ([]Subject, error)
		GetByID(ctx context.Context, id string) (Subject, error)
		Update(ctx context.Context, id string, us UpdateSubject) (Subject, error)
		Delete(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(name string, excluded ...Subject) error {
	if err := svc.repo.CheckNameUniqueness(context.Background(), name, excluded...); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewSubject) (Subject, error) {
	sub := Subject{
		ID:        core.NewID(),
		Name:      ns.Name,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Subject, error) {
	return svc.repo.QueryAllSubjects(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateSubject) (Subject, error) {
	sub, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	sub.Name = us.Name
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSubjectsByID(ctx, ids...)
}
