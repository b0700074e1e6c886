package localstore

import (
	"time"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/chat"
	"github.com/somaedu/soma/core/material"
	"github.com/somaedu/soma/core/quiz"
	"github.com/somaedu/soma/core/subject"
	"github.com/somaedu/soma/core/user"
)

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "Demo-pass123"

// SeedDemoData inserts the demo accounts, subject, materials and quiz the
// offline portal mode ships with. It runs exactly once: a non-empty users
// collection means the store is already seeded, so repeated calls are no-ops.
func (s *Store) SeedDemoData() error {
	users, err := s.Users().All()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil // already seeded
	}

	now := time.Now().UTC()

	newUser := func(name, username, email, role string) (user.User, error) {
		usr := user.User{
			ID:        core.NewID(),
			Name:      name,
			Username:  username,
			Email:     email,
			Roles:     []string{role},
			CreatedAt: now,
			UpdatedAt: now,
		}
		usr.SetActive(true)
		if err := usr.SetPassword(DemoPassword); err != nil {
			return user.User{}, err
		}
		return usr, s.Users().Add(usr)
	}

	if _, err := newUser("Admin User", "admin", "admin@elearn.com", user.RoleAdmin); err != nil {
		return err
	}
	teacher, err := newUser("Dr. Sarah Johnson", "sjohnson", "teacher@elearn.com", user.RoleTeacher)
	if err != nil {
		return err
	}
	if _, err := newUser("Alex Thompson", "athompson", "student@elearn.com", user.RoleStudent); err != nil {
		return err
	}

	sub := subject.Subject{ID: core.NewID(), Name: "Matematika", CreatedAt: now}
	if err := s.Subjects().Add(sub); err != nil {
		return err
	}

	materials := []material.Material{
		{
			ID:            core.NewID(),
			SubjectID:     sub.ID,
			TeacherID:     teacher.ID,
			Title:         "Introduction to Web Development",
			Description:   "Learn the fundamentals of HTML, CSS, and JavaScript",
			FileName:      "web-dev-intro.pdf",
			FileType:      material.TypePDF,
			FileSize:      2500000,
			DownloadCount: 45,
			CreatedAt:     now,
		},
		{
			ID:            core.NewID(),
			SubjectID:     sub.ID,
			TeacherID:     teacher.ID,
			Title:         "React Fundamentals",
			Description:   "Master React components, hooks, and state management",
			FileName:      "react-fundamentals.pptx",
			FileType:      material.TypePPT,
			FileSize:      5000000,
			DownloadCount: 32,
			CreatedAt:     now,
		},
	}
	for _, mat := range materials {
		if err := s.Materials().Put(mat); err != nil {
			return err
		}
	}

	qz := quiz.Quiz{
		ID:          core.NewID(),
		SubjectID:   sub.ID,
		TeacherID:   teacher.ID,
		Title:       "Web Development Basics Quiz",
		Description: "Quick check on the fundamentals",
		TimeLimit:   15,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Quizzes().Put(qz); err != nil {
		return err
	}
	questions := []quiz.Question{
		{
			ID:            core.NewID(),
			QuizID:        qz.ID,
			Text:          "Which language structures a web page?",
			OptionA:       "HTML",
			OptionB:       "CSS",
			OptionC:       "JavaScript",
			OptionD:       "SQL",
			CorrectOption: quiz.OptionA,
			Points:        2,
		},
		{
			ID:            core.NewID(),
			QuizID:        qz.ID,
			Text:          "Which language styles a web page?",
			OptionA:       "HTML",
			OptionB:       "CSS",
			OptionC:       "JavaScript",
			OptionD:       "SQL",
			CorrectOption: quiz.OptionB,
			Points:        3,
		},
	}
	for _, qn := range questions {
		if err := s.Questions().Put(qn); err != nil {
			return err
		}
	}

	welcome := chat.Message{
		ID:          core.NewID(),
		SubjectID:   sub.ID,
		AuthorID:    teacher.ID,
		AuthorName:  teacher.Name,
		AuthorRoles: teacher.Roles,
		Body:        "Welcome to the Matematika discussion!",
		CreatedAt:   now,
	}
	return s.Messages().Add(welcome)
}
