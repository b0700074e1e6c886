package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/somaedu/soma/core/quiz"
)

const (
	selectQuiz     = `SELECT id, subject_id, teacher_id, title, description, time_limit, is_published, created_at, updated_at FROM quiz`
	selectQuestion = `SELECT id, quiz_id, text, option_a, option_b, option_c, option_d, correct_option, points FROM question`
	selectAnswer   = `SELECT question_id, student_id, choice, is_correct, points, submitted_at FROM answer`
)

type (
	dbQuiz struct {
		ID          string    `db:"id"`
		SubjectID   string    `db:"subject_id"`
		TeacherID   string    `db:"teacher_id"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		TimeLimit   int       `db:"time_limit"`
		IsPublished bool      `db:"is_published"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	dbQuestion struct {
		ID            string `db:"id"`
		QuizID        string `db:"quiz_id"`
		Text          string `db:"text"`
		OptionA       string `db:"option_a"`
		OptionB       string `db:"option_b"`
		OptionC       string `db:"option_c"`
		OptionD       string `db:"option_d"`
		CorrectOption string `db:"correct_option"`
		Points        int    `db:"points"`
	}

	dbAnswer struct {
		QuestionID  string    `db:"question_id"`
		StudentID   string    `db:"student_id"`
		Choice      string    `db:"choice"`
		IsCorrect   bool      `db:"is_correct"`
		Points      int       `db:"points"`
		SubmittedAt time.Time `db:"submitted_at"`
	}
)

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO quiz (id, subject_id, teacher_id, title, description, time_limit, is_published, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		qz.ID, qz.SubjectID, qz.TeacherID, qz.Title, qz.Description,
		qz.TimeLimit, qz.IsPublished, qz.CreatedAt, qz.UpdatedAt,
	)
	return qz, err
}

func (repo *quizRepository) queryQuizzes(ctx context.Context, where string, args ...interface{}) ([]quiz.Quiz, error) {
	q := selectQuiz
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY created_at DESC"

	var rows []dbQuiz
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	quizzes := make([]quiz.Quiz, 0, len(rows))
	for _, dq := range rows {
		quizzes = append(quizzes, quiz.Quiz(dq))
	}
	return quizzes, nil
}

func (repo *quizRepository) QueryAllQuizzes(ctx context.Context) ([]quiz.Quiz, error) {
	return repo.queryQuizzes(ctx, "")
}

func (repo *quizRepository) QueryPublishedQuizzes(ctx context.Context) ([]quiz.Quiz, error) {
	return repo.queryQuizzes(ctx, "is_published")
}

func (repo *quizRepository) QueryQuizzesByTeacher(ctx context.Context, teacherID string) ([]quiz.Quiz, error) {
	return repo.queryQuizzes(ctx, "teacher_id = $1", teacherID)
}

func (repo *quizRepository) QueryQuizzesBySubject(ctx context.Context, subjectID string) ([]quiz.Quiz, error) {
	return repo.queryQuizzes(ctx, "subject_id = $1", subjectID)
}

func (repo *quizRepository) GetQuizByID(ctx context.Context, id string) (quiz.Quiz, error) {
	var dq dbQuiz
	err := repo.db.GetContext(ctx, &dq, selectQuiz+" WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	if err != nil {
		return quiz.Quiz{}, err
	}
	return quiz.Quiz(dq), nil
}

func (repo *quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE quiz SET title = $2, description = $3, time_limit = $4, is_published = $5, updated_at = $6 WHERE id = $1`,
		qz.ID, qz.Title, qz.Description, qz.TimeLimit, qz.IsPublished, qz.UpdatedAt,
	)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	return qz, nil
}

// DeleteQuizzesByID relies on ON DELETE CASCADE for questions and answers.
func (repo *quizRepository) DeleteQuizzesByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM quiz WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}

func (repo *quizRepository) CreateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO question (id, quiz_id, text, option_a, option_b, option_c, option_d, correct_option, points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		q.ID, q.QuizID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.Points,
	)
	return q, err
}

func (repo *quizRepository) GetQuestionByID(ctx context.Context, id string) (quiz.Question, error) {
	var dq dbQuestion
	err := repo.db.GetContext(ctx, &dq, selectQuestion+" WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	if err != nil {
		return quiz.Question{}, err
	}
	return quiz.Question(dq), nil
}

func (repo *quizRepository) QueryQuestionsByQuiz(ctx context.Context, quizID string) ([]quiz.Question, error) {
	var rows []dbQuestion
	if err := repo.db.SelectContext(ctx, &rows, selectQuestion+" WHERE quiz_id = $1 ORDER BY id", quizID); err != nil {
		return nil, err
	}
	questions := make([]quiz.Question, 0, len(rows))
	for _, dq := range rows {
		questions = append(questions, quiz.Question(dq))
	}
	return questions, nil
}

func (repo *quizRepository) UpdateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE question SET text = $2, option_a = $3, option_b = $4, option_c = $5, option_d = $6, correct_option = $7, points = $8 WHERE id = $1`,
		q.ID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.Points,
	)
	if err != nil {
		return quiz.Question{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	return q, nil
}

// DeleteQuestionsByID relies on ON DELETE CASCADE for answers.
func (repo *quizRepository) DeleteQuestionsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM question WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}

func (repo *quizRepository) UpsertAnswer(ctx context.Context, ans quiz.Answer) (quiz.Answer, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO answer (question_id, student_id, choice, is_correct, points, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (question_id, student_id) DO UPDATE SET
		   choice = EXCLUDED.choice, is_correct = EXCLUDED.is_correct,
		   points = EXCLUDED.points, submitted_at = EXCLUDED.submitted_at`,
		ans.QuestionID, ans.StudentID, ans.Choice, ans.IsCorrect, ans.Points, ans.SubmittedAt,
	)
	return ans, err
}

func (repo *quizRepository) queryAnswers(ctx context.Context, where string, args ...interface{}) ([]quiz.Answer, error) {
	q := selectAnswer + " WHERE " + where + " ORDER BY submitted_at"
	var rows []dbAnswer
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	answers := make([]quiz.Answer, 0, len(rows))
	for _, da := range rows {
		answers = append(answers, quiz.Answer(da))
	}
	return answers, nil
}

func (repo *quizRepository) QueryAnswersByQuizAndStudent(ctx context.Context, quizID, studentID string) ([]quiz.Answer, error) {
	return repo.queryAnswers(ctx,
		"question_id IN (SELECT id FROM question WHERE quiz_id = $1) AND student_id = $2",
		quizID, studentID,
	)
}

func (repo *quizRepository) QueryAnswersByQuiz(ctx context.Context, quizID string) ([]quiz.Answer, error) {
	return repo.queryAnswers(ctx, "question_id IN (SELECT id FROM question WHERE quiz_id = $1)", quizID)
}
