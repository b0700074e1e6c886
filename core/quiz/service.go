package quiz

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/somaedu/soma/core"
)

var (
	// errors
	ErrNotFound         = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrNoQuestions      = errors.New("this quiz has no questions yet")
)

type (
	Repository interface {
		CreateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		QueryAllQuizzes(ctx context.Context) ([]Quiz, error)
		QueryPublishedQuizzes(ctx context.Context) ([]Quiz, error)
		QueryQuizzesByTeacher(ctx context.Context, teacherID string) ([]Quiz, error)
		QueryQuizzesBySubject(ctx context.Context, subjectID string) ([]Quiz, error)
		GetQuizByID(ctx context.Context, id string) (Quiz, error)
		UpdateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		// DeleteQuizzesByID cascades to the quizzes' questions and answers.
		DeleteQuizzesByID(ctx context.Context, ids ...string) error

		CreateQuestion(ctx context.Context, q Question) (Question, error)
		GetQuestionByID(ctx context.Context, id string) (Question, error)
		QueryQuestionsByQuiz(ctx context.Context, quizID string) ([]Question, error)
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		// DeleteQuestionsByID cascades to the questions' answers.
		DeleteQuestionsByID(ctx context.Context, ids ...string) error

		// UpsertAnswer replaces any previous answer for the same
		// (student, question) pair.
		UpsertAnswer(ctx context.Context, ans Answer) (Answer, error)
		QueryAnswersByQuizAndStudent(ctx context.Context, quizID, studentID string) ([]Answer, error)
		QueryAnswersByQuiz(ctx context.Context, quizID string) ([]Answer, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, nq NewQuiz) (Quiz, error)
		QueryAll(ctx context.Context) ([]Quiz, error)
		QueryPublished(ctx context.Context) ([]Quiz, error)
		QueryByTeacher(ctx context.Context, teacherID string) ([]Quiz, error)
		QueryBySubject(ctx context.Context, subjectID string) ([]Quiz, error)
		GetByID(ctx context.Context, id string) (Quiz, error)
		Update(ctx context.Context, id string, uq UpdateQuiz) (Quiz, error)
		Delete(ctx context.Context, ids ...string) error

		AddQuestion(ctx context.Context, nq NewQuestion) (Question, error)
		GetQuestionByID(ctx context.Context, id string) (Question, error)
		QuestionsForQuiz(ctx context.Context, quizID string) ([]Question, error)
		UpdateQuestion(ctx context.Context, id string, uq UpdateQuestion) (Question, error)
		DeleteQuestions(ctx context.Context, ids ...string) error

		SubmitAnswer(ctx context.Context, sa SubmitAnswer) (Answer, error)
		Attempt(ctx context.Context, quizID, studentID string) (AttemptSummary, error)
		Results(ctx context.Context, quizID string) ([]AttemptSummary, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nq NewQuiz) (Quiz, error) {
	now := time.Now().UTC()
	qz := Quiz{
		ID:          core.NewID(),
		SubjectID:   nq.SubjectID,
		TeacherID:   nq.TeacherID,
		Title:       nq.Title,
		Description: nq.Description,
		TimeLimit:   nq.TimeLimit,
		IsPublished: nq.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateQuiz(ctx, qz)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Quiz, error) {
	return svc.repo.QueryAllQuizzes(ctx)
}

func (svc *Service) QueryPublished(ctx context.Context) ([]Quiz, error) {
	return svc.repo.QueryPublishedQuizzes(ctx)
}

func (svc *Service) QueryByTeacher(ctx context.Context, teacherID string) ([]Quiz, error) {
	return svc.repo.QueryQuizzesByTeacher(ctx, teacherID)
}

func (svc *Service) QueryBySubject(ctx context.Context, subjectID string) ([]Quiz, error) {
	return svc.repo.QueryQuizzesBySubject(ctx, subjectID)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Quiz, error) {
	return svc.repo.GetQuizByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uq UpdateQuiz) (Quiz, error) {
	qz, err := svc.repo.GetQuizByID(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	qz.Title = uq.Title
	qz.Description = uq.Description
	if uq.TimeLimit != nil {
		qz.TimeLimit = *uq.TimeLimit
	}
	if uq.IsPublished != nil {
		qz.IsPublished = *uq.IsPublished
	}
	qz.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateQuiz(ctx, qz)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteQuizzesByID(ctx, ids...)
}

func (svc *Service) AddQuestion(ctx context.Context, nq NewQuestion) (Question, error) {
	if _, err := svc.repo.GetQuizByID(ctx, nq.QuizID); err != nil {
		return Question{}, err
	}
	q := Question{
		ID:            core.NewID(),
		QuizID:        nq.QuizID,
		Text:          nq.Text,
		OptionA:       nq.OptionA,
		OptionB:       nq.OptionB,
		OptionC:       nq.OptionC,
		OptionD:       nq.OptionD,
		CorrectOption: nq.CorrectOption,
		Points:        nq.Points,
	}
	return svc.repo.CreateQuestion(ctx, q)
}

func (svc *Service) GetQuestionByID(ctx context.Context, id string) (Question, error) {
	return svc.repo.GetQuestionByID(ctx, id)
}

func (svc *Service) QuestionsForQuiz(ctx context.Context, quizID string) ([]Question, error) {
	return svc.repo.QueryQuestionsByQuiz(ctx, quizID)
}

func (svc *Service) UpdateQuestion(ctx context.Context, id string, uq UpdateQuestion) (Question, error) {
	q, err := svc.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if uq.Text != "" {
		q.Text = uq.Text
	}
	if uq.OptionA != "" {
		q.OptionA = uq.OptionA
	}
	if uq.OptionB != "" {
		q.OptionB = uq.OptionB
	}
	if uq.OptionC != "" {
		q.OptionC = uq.OptionC
	}
	if uq.OptionD != "" {
		q.OptionD = uq.OptionD
	}
	if uq.CorrectOption != "" {
		q.CorrectOption = uq.CorrectOption
	}
	if uq.Points > 0 {
		q.Points = uq.Points
	}
	return svc.repo.UpdateQuestion(ctx, q)
}

func (svc *Service) DeleteQuestions(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteQuestionsByID(ctx, ids...)
}

// SubmitAnswer grades the submission and stores it, replacing any previous
// answer of the same student to the same question. Quizzes that are not
// published (or have vanished) are not answerable.
func (svc *Service) SubmitAnswer(ctx context.Context, sa SubmitAnswer) (Answer, error) {
	q, err := svc.repo.GetQuestionByID(ctx, sa.QuestionID)
	if err != nil {
		return Answer{}, err
	}
	qz, err := svc.repo.GetQuizByID(ctx, q.QuizID)
	if err != nil {
		return Answer{}, err
	}
	if !qz.IsPublished {
		return Answer{}, ErrNotFound
	}

	ans := Answer{
		QuestionID:  q.ID,
		StudentID:   sa.StudentID,
		Choice:      sa.Choice,
		IsCorrect:   Grade(q, sa.Choice),
		SubmittedAt: time.Now().UTC(),
	}
	if ans.IsCorrect {
		ans.Points = q.Points
	}
	return svc.repo.UpsertAnswer(ctx, ans)
}

// Attempt derives the summary of a student's attempt at a quiz. A quiz with
// no questions is not startable and yields ErrNoQuestions.
func (svc *Service) Attempt(ctx context.Context, quizID, studentID string) (AttemptSummary, error) {
	if _, err := svc.repo.GetQuizByID(ctx, quizID); err != nil {
		return AttemptSummary{}, err
	}
	questions, err := svc.repo.QueryQuestionsByQuiz(ctx, quizID)
	if err != nil {
		return AttemptSummary{}, err
	}
	if len(questions) == 0 {
		return AttemptSummary{}, ErrNoQuestions
	}
	answers, err := svc.repo.QueryAnswersByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		return AttemptSummary{}, err
	}
	return Summarize(quizID, studentID, questions, answers), nil
}

// Results derives per-student summaries for every student that answered at
// least one question of the quiz.
func (svc *Service) Results(ctx context.Context, quizID string) ([]AttemptSummary, error) {
	questions, err := svc.repo.QueryQuestionsByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	answers, err := svc.repo.QueryAnswersByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[string][]Answer)
	for _, ans := range answers {
		byStudent[ans.StudentID] = append(byStudent[ans.StudentID], ans)
	}

	summaries := make([]AttemptSummary, 0, len(byStudent))
	for studentID, studentAnswers := range byStudent {
		summaries = append(summaries, Summarize(quizID, studentID, questions, studentAnswers))
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].StudentID < summaries[j].StudentID })
	return summaries, nil
}
