package localstore

import (
	"encoding/json"
	"strings"

	"github.com/somaedu/soma/core/chat"
	"github.com/somaedu/soma/core/material"
	"github.com/somaedu/soma/core/quiz"
	"github.com/somaedu/soma/core/subject"
	"github.com/somaedu/soma/core/user"
)

// Collections
const (
	colUsers     = "users"
	colSubjects  = "subjects"
	colMaterials = "materials"
	colQuizzes   = "quizzes"
	colQuestions = "questions"
	colAnswers   = "answers"
	colMessages  = "chat_messages"
	colOffline   = "offline_materials"
	colSettings  = "settings"
)

func (s *Store) registerCollections() {
	s.registerIndexer(colUsers, func(raw []byte) ([]IndexEntry, error) {
		var rec userRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		var entries []IndexEntry
		if rec.Email != "" {
			entries = append(entries, IndexEntry{Name: "email", Value: strings.ToLower(rec.Email), Unique: true})
		}
		if rec.Username != "" {
			entries = append(entries, IndexEntry{Name: "username", Value: strings.ToLower(rec.Username), Unique: true})
		}
		return entries, nil
	})
	s.registerIndexer(colSubjects, func(raw []byte) ([]IndexEntry, error) {
		var sub subject.Subject
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, err
		}
		return []IndexEntry{{Name: "name", Value: strings.ToLower(sub.Name), Unique: true}}, nil
	})
	s.registerIndexer(colMaterials, func(raw []byte) ([]IndexEntry, error) {
		var mat material.Material
		if err := json.Unmarshal(raw, &mat); err != nil {
			return nil, err
		}
		return []IndexEntry{
			{Name: "subject", Value: mat.SubjectID},
			{Name: "teacher", Value: mat.TeacherID},
		}, nil
	})
	s.registerIndexer(colQuizzes, func(raw []byte) ([]IndexEntry, error) {
		var qz quiz.Quiz
		if err := json.Unmarshal(raw, &qz); err != nil {
			return nil, err
		}
		return []IndexEntry{
			{Name: "subject", Value: qz.SubjectID},
			{Name: "teacher", Value: qz.TeacherID},
		}, nil
	})
	s.registerIndexer(colQuestions, func(raw []byte) ([]IndexEntry, error) {
		var qn quiz.Question
		if err := json.Unmarshal(raw, &qn); err != nil {
			return nil, err
		}
		return []IndexEntry{{Name: "quiz", Value: qn.QuizID}}, nil
	})
	s.registerIndexer(colAnswers, func(raw []byte) ([]IndexEntry, error) {
		var ans quiz.Answer
		if err := json.Unmarshal(raw, &ans); err != nil {
			return nil, err
		}
		return []IndexEntry{
			{Name: "question", Value: ans.QuestionID},
			{Name: "student", Value: ans.StudentID},
		}, nil
	})
	s.registerIndexer(colMessages, func(raw []byte) ([]IndexEntry, error) {
		var msg chat.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return []IndexEntry{{Name: "subject", Value: msg.SubjectID}}, nil
	})
	s.registerIndexer(colOffline, func(raw []byte) ([]IndexEntry, error) {
		var om OfflineMaterial
		if err := json.Unmarshal(raw, &om); err != nil {
			return nil, err
		}
		return []IndexEntry{{Name: "material", Value: om.MaterialID, Unique: true}}, nil
	})
}

// userRecord is the stored shape of a User; the domain type hides the
// password hash from JSON, the store must keep it.
type userRecord struct {
	user.User
	PasswordHash []byte `json:"password_hash"`
}

func (r userRecord) toUser() user.User {
	usr := r.User
	usr.PasswordHash = r.PasswordHash
	return usr
}

type (
	UsersCol     struct{ s *Store }
	SubjectsCol  struct{ s *Store }
	MaterialsCol struct{ s *Store }
	QuizzesCol   struct{ s *Store }
	QuestionsCol struct{ s *Store }
	AnswersCol   struct{ s *Store }
	MessagesCol  struct{ s *Store }
)

func (s *Store) Users() UsersCol         { return UsersCol{s} }
func (s *Store) Subjects() SubjectsCol   { return SubjectsCol{s} }
func (s *Store) Materials() MaterialsCol { return MaterialsCol{s} }
func (s *Store) Quizzes() QuizzesCol     { return QuizzesCol{s} }
func (s *Store) Questions() QuestionsCol { return QuestionsCol{s} }
func (s *Store) Answers() AnswersCol     { return AnswersCol{s} }
func (s *Store) Messages() MessagesCol   { return MessagesCol{s} }

// ---- users ----

func (c UsersCol) Add(usr user.User) error {
	return c.s.Add(colUsers, usr.ID, userRecord{User: usr, PasswordHash: usr.PasswordHash})
}

func (c UsersCol) Put(usr user.User) error {
	return c.s.Put(colUsers, usr.ID, userRecord{User: usr, PasswordHash: usr.PasswordHash})
}

func (c UsersCol) Get(id string) (user.User, error) {
	var rec userRecord
	if err := c.s.Get(colUsers, id, &rec); err != nil {
		return user.User{}, err
	}
	return rec.toUser(), nil
}

func (c UsersCol) GetByEmail(email string) (user.User, error) {
	var rec userRecord
	if err := c.s.GetByIndex(colUsers, "email", strings.ToLower(email), &rec); err != nil {
		return user.User{}, err
	}
	return rec.toUser(), nil
}

func (c UsersCol) GetByUsername(username string) (user.User, error) {
	var rec userRecord
	if err := c.s.GetByIndex(colUsers, "username", strings.ToLower(username), &rec); err != nil {
		return user.User{}, err
	}
	return rec.toUser(), nil
}

func (c UsersCol) All() ([]user.User, error) {
	raws, err := c.s.GetAll(colUsers)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(raws))
	for _, raw := range raws {
		var rec userRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		users = append(users, rec.toUser())
	}
	return users, nil
}

func (c UsersCol) Delete(id string) error {
	return c.s.Delete(colUsers, id)
}

// ---- subjects ----

func (c SubjectsCol) Add(sub subject.Subject) error { return c.s.Add(colSubjects, sub.ID, sub) }
func (c SubjectsCol) Put(sub subject.Subject) error { return c.s.Put(colSubjects, sub.ID, sub) }

func (c SubjectsCol) Get(id string) (subject.Subject, error) {
	var sub subject.Subject
	err := c.s.Get(colSubjects, id, &sub)
	return sub, err
}

func (c SubjectsCol) GetByName(name string) (subject.Subject, error) {
	var sub subject.Subject
	err := c.s.GetByIndex(colSubjects, "name", strings.ToLower(name), &sub)
	return sub, err
}

func (c SubjectsCol) All() ([]subject.Subject, error) {
	raws, err := c.s.GetAll(colSubjects)
	if err != nil {
		return nil, err
	}
	subs := make([]subject.Subject, 0, len(raws))
	for _, raw := range raws {
		var sub subject.Subject
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Delete removes the subject and everything hanging off it: materials,
// quizzes (with questions and answers) and discussion messages.
func (c SubjectsCol) Delete(id string) error {
	mats, err := c.s.Materials().BySubject(id)
	if err != nil {
		return err
	}
	for _, mat := range mats {
		if err := c.s.Materials().Delete(mat.ID); err != nil {
			return err
		}
	}
	quizzes, err := c.s.Quizzes().BySubject(id)
	if err != nil {
		return err
	}
	for _, qz := range quizzes {
		if err := c.s.Quizzes().Delete(qz.ID); err != nil {
			return err
		}
	}
	if err := c.s.Messages().DeleteBySubject(id); err != nil {
		return err
	}
	return c.s.Delete(colSubjects, id)
}

// ---- materials ----

func (c MaterialsCol) Put(mat material.Material) error { return c.s.Put(colMaterials, mat.ID, mat) }

func (c MaterialsCol) Get(id string) (material.Material, error) {
	var mat material.Material
	err := c.s.Get(colMaterials, id, &mat)
	return mat, err
}

func (c MaterialsCol) All() ([]material.Material, error) {
	raws, err := c.s.GetAll(colMaterials)
	if err != nil {
		return nil, err
	}
	return decodeMaterials(raws)
}

func (c MaterialsCol) BySubject(subjectID string) ([]material.Material, error) {
	raws, err := c.s.GetAllByIndex(colMaterials, "subject", subjectID)
	if err != nil {
		return nil, err
	}
	return decodeMaterials(raws)
}

func (c MaterialsCol) ByTeacher(teacherID string) ([]material.Material, error) {
	raws, err := c.s.GetAllByIndex(colMaterials, "teacher", teacherID)
	if err != nil {
		return nil, err
	}
	return decodeMaterials(raws)
}

func (c MaterialsCol) Delete(id string) error {
	if err := c.s.Delete(colMaterials, id); err != nil {
		return err
	}
	return c.s.DropCached(id)
}

func decodeMaterials(raws []json.RawMessage) ([]material.Material, error) {
	mats := make([]material.Material, 0, len(raws))
	for _, raw := range raws {
		var mat material.Material
		if err := json.Unmarshal(raw, &mat); err != nil {
			return nil, err
		}
		mats = append(mats, mat)
	}
	return mats, nil
}

// ---- quizzes ----

func (c QuizzesCol) Put(qz quiz.Quiz) error { return c.s.Put(colQuizzes, qz.ID, qz) }

func (c QuizzesCol) Get(id string) (quiz.Quiz, error) {
	var qz quiz.Quiz
	err := c.s.Get(colQuizzes, id, &qz)
	return qz, err
}

func (c QuizzesCol) All() ([]quiz.Quiz, error) {
	raws, err := c.s.GetAll(colQuizzes)
	if err != nil {
		return nil, err
	}
	return decodeQuizzes(raws)
}

func (c QuizzesCol) BySubject(subjectID string) ([]quiz.Quiz, error) {
	raws, err := c.s.GetAllByIndex(colQuizzes, "subject", subjectID)
	if err != nil {
		return nil, err
	}
	return decodeQuizzes(raws)
}

func (c QuizzesCol) ByTeacher(teacherID string) ([]quiz.Quiz, error) {
	raws, err := c.s.GetAllByIndex(colQuizzes, "teacher", teacherID)
	if err != nil {
		return nil, err
	}
	return decodeQuizzes(raws)
}

// Delete cascades to the quiz's questions and their answers.
func (c QuizzesCol) Delete(id string) error {
	questions, err := c.s.Questions().ByQuiz(id)
	if err != nil {
		return err
	}
	for _, qn := range questions {
		if err := c.s.Questions().Delete(qn.ID); err != nil {
			return err
		}
	}
	return c.s.Delete(colQuizzes, id)
}

func decodeQuizzes(raws []json.RawMessage) ([]quiz.Quiz, error) {
	quizzes := make([]quiz.Quiz, 0, len(raws))
	for _, raw := range raws {
		var qz quiz.Quiz
		if err := json.Unmarshal(raw, &qz); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, qz)
	}
	return quizzes, nil
}

// ---- questions ----

func (c QuestionsCol) Put(qn quiz.Question) error { return c.s.Put(colQuestions, qn.ID, qn) }

func (c QuestionsCol) Get(id string) (quiz.Question, error) {
	var qn quiz.Question
	err := c.s.Get(colQuestions, id, &qn)
	return qn, err
}

func (c QuestionsCol) ByQuiz(quizID string) ([]quiz.Question, error) {
	raws, err := c.s.GetAllByIndex(colQuestions, "quiz", quizID)
	if err != nil {
		return nil, err
	}
	questions := make([]quiz.Question, 0, len(raws))
	for _, raw := range raws {
		var qn quiz.Question
		if err := json.Unmarshal(raw, &qn); err != nil {
			return nil, err
		}
		questions = append(questions, qn)
	}
	return questions, nil
}

// Delete cascades to the question's answers.
func (c QuestionsCol) Delete(id string) error {
	answers, err := c.s.Answers().ByQuestion(id)
	if err != nil {
		return err
	}
	for _, ans := range answers {
		if err := c.s.Delete(colAnswers, answerID(ans.QuestionID, ans.StudentID)); err != nil {
			return err
		}
	}
	return c.s.Delete(colQuestions, id)
}

// ---- answers ----

// answerID is the composite record id: one answer per (question, student)
// pair, so a resubmission lands on the same key and replaces the old record.
func answerID(questionID, studentID string) string {
	return questionID + "." + studentID
}

// Put upserts; resubmission replaces the previous answer.
func (c AnswersCol) Put(ans quiz.Answer) error {
	return c.s.Put(colAnswers, answerID(ans.QuestionID, ans.StudentID), ans)
}

func (c AnswersCol) Get(questionID, studentID string) (quiz.Answer, error) {
	var ans quiz.Answer
	err := c.s.Get(colAnswers, answerID(questionID, studentID), &ans)
	return ans, err
}

func (c AnswersCol) ByQuestion(questionID string) ([]quiz.Answer, error) {
	raws, err := c.s.GetAllByIndex(colAnswers, "question", questionID)
	if err != nil {
		return nil, err
	}
	return decodeAnswers(raws)
}

func (c AnswersCol) ByStudent(studentID string) ([]quiz.Answer, error) {
	raws, err := c.s.GetAllByIndex(colAnswers, "student", studentID)
	if err != nil {
		return nil, err
	}
	return decodeAnswers(raws)
}

func decodeAnswers(raws []json.RawMessage) ([]quiz.Answer, error) {
	answers := make([]quiz.Answer, 0, len(raws))
	for _, raw := range raws {
		var ans quiz.Answer
		if err := json.Unmarshal(raw, &ans); err != nil {
			return nil, err
		}
		answers = append(answers, ans)
	}
	return answers, nil
}

// ---- chat messages ----

func (c MessagesCol) Add(msg chat.Message) error { return c.s.Add(colMessages, msg.ID, msg) }

// BySubject returns a subject's messages oldest first; ULID record ids give
// that ordering for free.
func (c MessagesCol) BySubject(subjectID string) ([]chat.Message, error) {
	raws, err := c.s.GetAllByIndex(colMessages, "subject", subjectID)
	if err != nil {
		return nil, err
	}
	msgs := make([]chat.Message, 0, len(raws))
	for _, raw := range raws {
		var msg chat.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (c MessagesCol) DeleteBySubject(subjectID string) error {
	msgs, err := c.BySubject(subjectID)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := c.s.Delete(colMessages, msg.ID); err != nil {
			return err
		}
	}
	return nil
}
