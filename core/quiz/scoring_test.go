package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrade(t *testing.T) {
	q := Question{ID: "q1", CorrectOption: OptionB, Points: 2}

	tests := []struct {
		name   string
		choice string
		want   bool
	}{
		{name: "exact match", choice: "B", want: true},
		{name: "lower case", choice: "b", want: true},
		{name: "surrounding whitespace", choice: " b ", want: true},
		{name: "wrong option", choice: "C", want: false},
		{name: "empty", choice: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Grade(q, tt.choice); got != tt.want {
				t.Errorf("Grade() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name         string
		score, total int
		want         int
	}{
		{name: "zero total is 0, not NaN", score: 0, total: 0, want: 0},
		{name: "zero score", score: 0, total: 5, want: 0},
		{name: "partial", score: 2, total: 5, want: 40},
		{name: "rounds up", score: 1, total: 3, want: 33},
		{name: "rounds 2/3", score: 2, total: 3, want: 67},
		{name: "full marks", score: 5, total: 5, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.score, tt.total); got != tt.want {
				t.Errorf("Percentage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	// teacher creates a quiz with 2 questions (2 points, 3 points); student
	// answers Q1 correctly and Q2 incorrectly -> score=2, total=5, 40%
	questions := []Question{
		{ID: "q1", QuizID: "quiz1", CorrectOption: OptionA, Points: 2},
		{ID: "q2", QuizID: "quiz1", CorrectOption: OptionC, Points: 3},
	}
	answers := []Answer{
		{QuestionID: "q1", StudentID: "student1", Choice: OptionA, IsCorrect: true, Points: 2},
		{QuestionID: "q2", StudentID: "student1", Choice: OptionB, IsCorrect: false},
	}

	sum := Summarize("quiz1", "student1", questions, answers)
	assert.Equal(t, 2, sum.Answered)
	assert.Equal(t, 2, sum.Score)
	assert.Equal(t, 5, sum.TotalPoints)
	assert.Equal(t, 40, sum.Percentage)
}

func TestSummarizeUnanswered(t *testing.T) {
	questions := []Question{
		{ID: "q1", QuizID: "quiz1", CorrectOption: OptionA, Points: 2},
		{ID: "q2", QuizID: "quiz1", CorrectOption: OptionC, Points: 3},
	}

	sum := Summarize("quiz1", "student1", questions, nil)
	assert.Equal(t, 0, sum.Answered)
	assert.Equal(t, 0, sum.Score)
	assert.Equal(t, 5, sum.TotalPoints)
	assert.Equal(t, 0, sum.Percentage)
}
