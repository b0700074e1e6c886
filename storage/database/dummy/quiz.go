package dummydb

import (
	"context"
	"sort"

	"github.com/somaedu/soma/core/quiz"
)

type quizRepository struct {
	db *quizTable
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{db: db.quiz}
}

func answerKey(questionID, studentID string) string {
	return questionID + "." + studentID
}

func (repo *quizRepository) queryQuizzes(match func(quiz.Quiz) bool) []quiz.Quiz {
	quizzes := make([]quiz.Quiz, 0, len(repo.db.quizzes))
	for _, qz := range repo.db.quizzes {
		if match == nil || match(*qz) {
			quizzes = append(quizzes, *qz)
		}
	}
	// newest first, like the SQL repository
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt) })
	return quizzes
}

func (repo *quizRepository) CreateQuiz(_ context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.quizzes[qz.ID] = &qz
	return qz, nil
}

func (repo *quizRepository) QueryAllQuizzes(_ context.Context) ([]quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryQuizzes(nil), nil
}

func (repo *quizRepository) QueryPublishedQuizzes(_ context.Context) ([]quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryQuizzes(func(qz quiz.Quiz) bool { return qz.IsPublished }), nil
}

func (repo *quizRepository) QueryQuizzesByTeacher(_ context.Context, teacherID string) ([]quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryQuizzes(func(qz quiz.Quiz) bool { return qz.TeacherID == teacherID }), nil
}

func (repo *quizRepository) QueryQuizzesBySubject(_ context.Context, subjectID string) ([]quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryQuizzes(func(qz quiz.Quiz) bool { return qz.SubjectID == subjectID }), nil
}

func (repo *quizRepository) GetQuizByID(_ context.Context, id string) (quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if qz, ok := repo.db.quizzes[id]; ok {
		return *qz, nil
	}
	return quiz.Quiz{}, quiz.ErrNotFound
}

func (repo *quizRepository) UpdateQuiz(_ context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.quizzes[qz.ID]; !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	repo.db.quizzes[qz.ID] = &qz
	return qz, nil
}

func (repo *quizRepository) DeleteQuizzesByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		for qnID, qn := range repo.db.questions {
			if qn.QuizID != id {
				continue
			}
			for ansKey, ans := range repo.db.answers {
				if ans.QuestionID == qnID {
					delete(repo.db.answers, ansKey)
				}
			}
			delete(repo.db.questions, qnID)
		}
		delete(repo.db.quizzes, id)
	}
	return nil
}

func (repo *quizRepository) CreateQuestion(_ context.Context, q quiz.Question) (quiz.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *quizRepository) GetQuestionByID(_ context.Context, id string) (quiz.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.questions[id]; ok {
		return *q, nil
	}
	return quiz.Question{}, quiz.ErrQuestionNotFound
}

func (repo *quizRepository) QueryQuestionsByQuiz(_ context.Context, quizID string) ([]quiz.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	questions := make([]quiz.Question, 0)
	for _, q := range repo.db.questions {
		if q.QuizID == quizID {
			questions = append(questions, *q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, nil
}

func (repo *quizRepository) UpdateQuestion(_ context.Context, q quiz.Question) (quiz.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.questions[q.ID]; !ok {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *quizRepository) DeleteQuestionsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		for ansKey, ans := range repo.db.answers {
			if ans.QuestionID == id {
				delete(repo.db.answers, ansKey)
			}
		}
		delete(repo.db.questions, id)
	}
	return nil
}

func (repo *quizRepository) UpsertAnswer(_ context.Context, ans quiz.Answer) (quiz.Answer, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.answers[answerKey(ans.QuestionID, ans.StudentID)] = &ans
	return ans, nil
}

func (repo *quizRepository) queryAnswers(match func(quiz.Answer) bool) []quiz.Answer {
	answers := make([]quiz.Answer, 0)
	for _, ans := range repo.db.answers {
		if match(*ans) {
			answers = append(answers, *ans)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].SubmittedAt.Before(answers[j].SubmittedAt) })
	return answers
}

func (repo *quizRepository) quizQuestionIDs(quizID string) map[string]struct{} {
	ids := make(map[string]struct{})
	for id, q := range repo.db.questions {
		if q.QuizID == quizID {
			ids[id] = struct{}{}
		}
	}
	return ids
}

func (repo *quizRepository) QueryAnswersByQuizAndStudent(_ context.Context, quizID, studentID string) ([]quiz.Answer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	qIDs := repo.quizQuestionIDs(quizID)
	return repo.queryAnswers(func(ans quiz.Answer) bool {
		_, ok := qIDs[ans.QuestionID]
		return ok && ans.StudentID == studentID
	}), nil
}

func (repo *quizRepository) QueryAnswersByQuiz(_ context.Context, quizID string) ([]quiz.Answer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	qIDs := repo.quizQuestionIDs(quizID)
	return repo.queryAnswers(func(ans quiz.Answer) bool {
		_, ok := qIDs[ans.QuestionID]
		return ok
	}), nil
}
