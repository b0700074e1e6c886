package quiz

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/somaedu/soma/core"
)

// Option markers
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

var AllOptions = []string{OptionA, OptionB, OptionC, OptionD}

// Quiz is an assessment authored by a teacher; visible to students only once
// published.
type Quiz struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	TeacherID   string    `json:"teacher_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TimeLimit   int       `json:"time_limit"` // minutes; 0 = none
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Question is one multiple-choice item of a Quiz. It is cascade-deleted with
// its Quiz.
type Question struct {
	ID            string `json:"id"`
	QuizID        string `json:"quiz_id"`
	Text          string `json:"text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
	Points        int    `json:"points"`
}

// StudentQuestion is the Question shape served to students: same item, no
// answer key.
type StudentQuestion struct {
	ID      string `json:"id"`
	QuizID  string `json:"quiz_id"`
	Text    string `json:"text"`
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
	OptionC string `json:"option_c"`
	OptionD string `json:"option_d"`
	Points  int    `json:"points"`
}

func (q Question) ForStudent() StudentQuestion {
	return StudentQuestion{
		ID:      q.ID,
		QuizID:  q.QuizID,
		Text:    q.Text,
		OptionA: q.OptionA,
		OptionB: q.OptionB,
		OptionC: q.OptionC,
		OptionD: q.OptionD,
		Points:  q.Points,
	}
}

// Answer records a student's graded response to one Question. One record per
// (student, question) pair; resubmission replaces the previous record.
type Answer struct {
	QuestionID  string    `json:"question_id"`
	StudentID   string    `json:"student_id"`
	Choice      string    `json:"choice"`
	IsCorrect   bool      `json:"is_correct"`
	Points      int       `json:"points"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
}

// AttemptSummary is derived, not stored: the aggregation of a student's
// Answers across a quiz's question set.
type AttemptSummary struct {
	QuizID      string `json:"quiz_id"`
	StudentID   string `json:"student_id"`
	Answered    int    `json:"answered"`
	Score       int    `json:"score"`
	TotalPoints int    `json:"total_points"`
	Percentage  int    `json:"percentage"`
}

// NewQuiz contains information needed to create a new Quiz.
type NewQuiz struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	TeacherID   string `json:"-"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	TimeLimit   int    `json:"time_limit" validate:"gte=0"`
	IsPublished bool   `json:"is_published"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.Title = core.CleanString(nq.Title)
	nq.Description = core.CleanString(nq.Description)
	return validate.Struct(nq)
}

// UpdateQuiz defines what information may be provided to modify an existing Quiz.
type UpdateQuiz struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TimeLimit   *int   `json:"time_limit" validate:"omitempty,gte=0"`
	IsPublished *bool  `json:"is_published"`
}

func (uq *UpdateQuiz) Validate(orig Quiz, validate *validator.Validate) error {
	if title := core.CleanString(uq.Title); title != "" {
		uq.Title = title
	} else {
		uq.Title = orig.Title
	}
	uq.Description = core.CleanString(uq.Description)
	return validate.Struct(uq)
}

// NewQuestion contains information needed to add a Question to a Quiz.
type NewQuestion struct {
	QuizID        string `json:"quiz_id" validate:"required"`
	Text          string `json:"text" validate:"required"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c" validate:"required"`
	OptionD       string `json:"option_d" validate:"required"`
	CorrectOption string `json:"correct_option" validate:"required,optionmarker"`
	Points        int    `json:"points" validate:"gt=0"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Text = core.CleanString(nq.Text)
	nq.CorrectOption = NormalizeChoice(nq.CorrectOption)
	return validate.Struct(nq)
}

// UpdateQuestion defines what information may be provided to modify an
// existing Question.
type UpdateQuestion struct {
	Text          string `json:"text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option" validate:"omitempty,optionmarker"`
	Points        int    `json:"points" validate:"omitempty,gt=0"`
}

func (uq *UpdateQuestion) Validate(validate *validator.Validate) error {
	uq.Text = core.CleanString(uq.Text)
	uq.CorrectOption = NormalizeChoice(uq.CorrectOption)
	return validate.Struct(uq)
}

// SubmitAnswer is a student's response to one Question; graded server-side.
type SubmitAnswer struct {
	QuestionID string `json:"question_id" validate:"required"`
	StudentID  string `json:"-"`
	Choice     string `json:"choice" validate:"required,optionmarker"`
}

func (sa *SubmitAnswer) Validate(validate *validator.Validate) error {
	sa.Choice = NormalizeChoice(sa.Choice)
	return validate.Struct(sa)
}
