package dummydb

import (
	"sync"

	"github.com/somaedu/soma/core/chat"
	"github.com/somaedu/soma/core/material"
	"github.com/somaedu/soma/core/quiz"
	"github.com/somaedu/soma/core/subject"
	"github.com/somaedu/soma/core/user"
)

type (
	DB struct {
		user     *userTable
		subject  *subjectTable
		material *materialTable
		quiz     *quizTable
		chat     *chatTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	subjectTable struct {
		sync.RWMutex
		table map[string]*subject.Subject
	}

	materialTable struct {
		sync.RWMutex
		table map[string]*material.Material
	}

	quizTable struct {
		sync.RWMutex
		quizzes   map[string]*quiz.Quiz
		questions map[string]*quiz.Question
		answers   map[string]*quiz.Answer // keyed by questionID+"."+studentID
	}

	chatTable struct {
		sync.RWMutex
		table map[string]*chat.Message
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		subject:  &subjectTable{table: make(map[string]*subject.Subject)},
		material: &materialTable{table: make(map[string]*material.Material)},
		quiz: &quizTable{
			quizzes:   make(map[string]*quiz.Quiz),
			questions: make(map[string]*quiz.Question),
			answers:   make(map[string]*quiz.Answer),
		},
		chat: &chatTable{table: make(map[string]*chat.Message)},
	}
	return db, nil
}
