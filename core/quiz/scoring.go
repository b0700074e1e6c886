package quiz

import (
	"math"
	"strings"
)

// NormalizeChoice trims and upper-cases a submitted option marker so that
// " b " and "B" grade identically.
func NormalizeChoice(choice string) string {
	return strings.ToUpper(strings.TrimSpace(choice))
}

// Grade reports whether the submitted choice matches the question's answer
// key. Exact match on the normalized marker; no partial credit.
func Grade(q Question, choice string) bool {
	return NormalizeChoice(choice) == q.CorrectOption
}

// Percentage returns round(100 * score / total). A zero total yields 0, never
// a division by zero.
func Percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}

// Summarize aggregates a student's answers over a quiz's question set.
func Summarize(quizID, studentID string, questions []Question, answers []Answer) AttemptSummary {
	byQuestion := make(map[string]Answer, len(answers))
	for _, ans := range answers {
		byQuestion[ans.QuestionID] = ans
	}

	sum := AttemptSummary{QuizID: quizID, StudentID: studentID}
	for _, q := range questions {
		sum.TotalPoints += q.Points
		ans, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		sum.Answered++
		if ans.IsCorrect {
			sum.Score += q.Points
		}
	}
	sum.Percentage = Percentage(sum.Score, sum.TotalPoints)
	return sum
}
