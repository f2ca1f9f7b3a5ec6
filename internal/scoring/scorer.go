// Package scoring computes attempt scores. Every correctness check in the
// service goes through IsCorrect so the live score and the final result agree.
package scoring

import (
	"strings"

	"school-competition-service/internal/domain"
)

// Result is the achieved and maximum points of a set of answers.
type Result struct {
	Achieved int `json:"achieved"`
	Max      int `json:"max"`
}

var letterCodes = "ABCD"

// letterIndex returns the option index for a stored letter code A-D.
func letterIndex(correct string) (int, bool) {
	code := strings.TrimSpace(correct)
	if len(code) != 1 {
		return 0, false
	}
	idx := strings.Index(letterCodes, code)
	return idx, idx >= 0
}

// CorrectOption resolves the text of the correct option. A letter code is
// mapped onto the option at its position; anything else is taken literally.
func CorrectOption(q domain.Question) string {
	if idx, ok := letterIndex(q.CorrectAnswer); ok && idx < len(q.Options) {
		return q.Options[idx]
	}
	return q.CorrectAnswer
}

// IsCorrect reports whether answer is right for q under either stored representation.
func IsCorrect(q domain.Question, answer string) bool {
	if answer == "" {
		return false
	}
	if answer == q.CorrectAnswer {
		return true
	}
	if idx, ok := letterIndex(q.CorrectAnswer); ok && idx < len(q.Options) {
		return q.Options[idx] == answer
	}
	return false
}

// PointValue is the weight of q. Competitions weigh by difficulty; practice
// uses the explicit score or 1.
func PointValue(q domain.Question, competition bool) int {
	if competition {
		return domain.NormalizeDifficulty(q.Difficulty).Weight()
	}
	if q.Score != nil {
		return *q.Score
	}
	return 1
}

// Score sums points for answered questions and the maximum over all questions.
// answers is keyed by question index.
func Score(questions []domain.Question, answers map[int]string, competition bool) Result {
	var res Result
	for i, q := range questions {
		points := PointValue(q, competition)
		res.Max += points
		if answer, ok := answers[i]; ok && IsCorrect(q, answer) {
			res.Achieved += points
		}
	}
	return res
}
