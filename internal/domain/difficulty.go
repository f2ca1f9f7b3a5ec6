package domain

import "strings"

// Difficulty is the normalized difficulty bucket of a question.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyTalented Difficulty = "talented"
)

// Difficulties lists the buckets in selection order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyTalented}

var difficultyLabels = map[string]Difficulty{
	"easy":           DifficultyEasy,
	"medium":         DifficultyMedium,
	"hard":           DifficultyHard,
	"talented":       DifficultyTalented,
	"high_achievers": DifficultyTalented,
	"سهل":            DifficultyEasy,
	"متوسط":          DifficultyMedium,
	"صعب":            DifficultyHard,
	"متفوقين":        DifficultyTalented,
}

// NormalizeDifficulty maps stored labels, including legacy synonyms, onto a bucket.
// Unknown labels return "".
func NormalizeDifficulty(raw string) Difficulty {
	return difficultyLabels[strings.ToLower(strings.TrimSpace(raw))]
}

// Weight is the point value of a correct answer in a competition.
func (d Difficulty) Weight() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	case DifficultyTalented:
		return 4
	}
	return 0
}
