package domain

import (
	"errors"
	"testing"
)

func TestNormalizeDifficultySynonyms(t *testing.T) {
	cases := map[string]Difficulty{
		"easy":           DifficultyEasy,
		" Medium ":       DifficultyMedium,
		"HARD":           DifficultyHard,
		"talented":       DifficultyTalented,
		"high_achievers": DifficultyTalented,
		"متفوقين":        DifficultyTalented,
		"expert":         "",
		"":               "",
	}
	for raw, want := range cases {
		if got := NormalizeDifficulty(raw); got != want {
			t.Fatalf("NormalizeDifficulty(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestDifficultyWeights(t *testing.T) {
	want := []int{1, 2, 3, 4}
	for i, d := range Difficulties {
		if d.Weight() != want[i] {
			t.Fatalf("%s weight = %d, want %d", d, d.Weight(), want[i])
		}
	}
	if Difficulty("").Weight() != 0 {
		t.Fatalf("unknown difficulty should weigh 0")
	}
}

func TestAttemptTimeSpentFallbacks(t *testing.T) {
	spent, taken := 40, 55
	if got := (Attempt{TimeSpentSeconds: &spent, LegacyTimeTaken: &taken}).TimeSpent(); got != 40 {
		t.Fatalf("expected time_spent to win, got %d", got)
	}
	if got := (Attempt{LegacyTimeTaken: &taken}).TimeSpent(); got != 55 {
		t.Fatalf("expected legacy time_taken, got %d", got)
	}
	if got := (Attempt{}).TimeSpent(); got != NoTimeSentinel {
		t.Fatalf("expected sentinel, got %d", got)
	}
}

func TestCompetitionValidate(t *testing.T) {
	valid := Competition{
		ID: "c1", GradeID: "g5", SubjectID: "math", Term: 1,
		StartWeek: 1, EndWeek: 4, EasyQuota: 2, HardQuota: 1,
		TimerMode: TimerTotal, DurationSeconds: 300, MaxAttempts: 2,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid competition, got %v", err)
	}
	if valid.TotalQuestions() != 3 {
		t.Fatalf("expected 3 questions, got %d", valid.TotalQuestions())
	}

	badWeeks := valid
	badWeeks.StartWeek, badWeeks.EndWeek = 5, 2
	if err := badWeeks.Validate(); !errors.Is(err, ErrInvalidCompetition) {
		t.Fatalf("expected invalid week range, got %v", err)
	}

	noQuota := valid
	noQuota.EasyQuota, noQuota.HardQuota = 0, 0
	if err := noQuota.Validate(); !errors.Is(err, ErrInvalidCompetition) {
		t.Fatalf("expected zero quota rejection, got %v", err)
	}

	badMode := valid
	badMode.TimerMode = "lap"
	if err := badMode.Validate(); !errors.Is(err, ErrInvalidCompetition) {
		t.Fatalf("expected timer mode rejection, got %v", err)
	}
}

func TestTransitionErrorsWrapParent(t *testing.T) {
	for _, err := range []error{ErrNoAnswerSelected, ErrNotRevealed, ErrLastQuestion, ErrNotLastQuestion, ErrSessionClosed} {
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%v should wrap ErrInvalidTransition", err)
		}
	}
}

func TestParseLeaderboardMode(t *testing.T) {
	if m, _ := ParseLeaderboardMode(""); m != LeaderboardBest {
		t.Fatalf("default mode should be best, got %q", m)
	}
	if m, _ := ParseLeaderboardMode("cumulative"); m != LeaderboardCumulative {
		t.Fatalf("expected cumulative, got %q", m)
	}
	if _, err := ParseLeaderboardMode("sum"); err != ErrUnknownLeaderboardMode {
		t.Fatalf("expected unknown mode error, got %v", err)
	}
}
