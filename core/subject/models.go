package subject

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/somaedu/soma/core"
)

// Subject is a taught discipline ("mata pelajaran"); Materials and Quizzes
// hang off it.
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name string `json:"name" validate:"required"`
}

func (ns *NewSubject) Validate(validate *validator.Validate, svc ServiceInterface) error {
	ns.Name = core.CleanString(ns.Name)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ns.Name)
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
type UpdateSubject struct {
	Name string `json:"name" validate:"required"`
}

func (us *UpdateSubject) Validate(orig Subject, validate *validator.Validate, svc ServiceInterface) error {
	us.Name = core.CleanString(us.Name)
	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(us.Name, orig)
}
