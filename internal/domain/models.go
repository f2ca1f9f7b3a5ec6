package domain

import "time"

// Question is a multiple-choice item from the shared question bank.
type Question struct {
	ID         string   `json:"id"`
	GradeID    string   `json:"gradeId"`
	SubjectID  string   `json:"subjectId"`
	Term       int      `json:"term"`
	Week       int      `json:"week"` // 0 applies to every week
	Difficulty string   `json:"difficulty"`
	Text       string   `json:"questionText"`
	Options    []string `json:"options"`
	// CorrectAnswer is either the literal text of one option or a letter code A-D.
	CorrectAnswer string `json:"correctAnswer"`
	Score         *int   `json:"score,omitempty"`
}

// QuestionScope is the server-side filter used when reading the question bank.
type QuestionScope struct {
	GradeID   string
	SubjectID string
	Term      int
}

// TimerMode controls whether DurationSeconds covers the attempt or each question.
type TimerMode string

const (
	TimerTotal       TimerMode = "total"
	TimerPerQuestion TimerMode = "per_question"
)

// Competition configures scope, quotas and timing for a timed quiz.
type Competition struct {
	ID              string    `json:"id" validate:"required"`
	Name            string    `json:"name"`
	GradeID         string    `json:"gradeId" validate:"required"`
	SubjectID       string    `json:"subjectId" validate:"required"`
	Term            int       `json:"term" validate:"min=1,max=2"`
	StartWeek       int       `json:"startWeek" validate:"gte=0"`
	EndWeek         int       `json:"endWeek" validate:"gte=0"`
	EasyQuota       int       `json:"easyQuota" validate:"gte=0"`
	MediumQuota     int       `json:"mediumQuota" validate:"gte=0"`
	HardQuota       int       `json:"hardQuota" validate:"gte=0"`
	TalentedQuota   int       `json:"talentedQuota" validate:"gte=0"`
	TimerMode       TimerMode `json:"timerMode" validate:"oneof=total per_question"`
	DurationSeconds int       `json:"durationSeconds" validate:"gt=0"`
	MaxAttempts     int       `json:"maxAttempts" validate:"gte=1"`
	IsActive        bool      `json:"isActive"`
}

// Quota returns the configured number of questions for a difficulty.
func (c Competition) Quota(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return c.EasyQuota
	case DifficultyMedium:
		return c.MediumQuota
	case DifficultyHard:
		return c.HardQuota
	case DifficultyTalented:
		return c.TalentedQuota
	}
	return 0
}

// TotalQuestions is the number of questions a full attempt presents.
func (c Competition) TotalQuestions() int {
	total := 0
	for _, d := range Difficulties {
		if q := c.Quota(d); q > 0 {
			total += q
		}
	}
	return total
}

// Scope returns the question bank filter for this competition.
func (c Competition) Scope() QuestionScope {
	return QuestionScope{GradeID: c.GradeID, SubjectID: c.SubjectID, Term: c.Term}
}

// NoTimeSentinel ranks attempts without a recorded duration behind timed ones.
const NoTimeSentinel = 1 << 30

// Attempt is the immutable outcome of one completed quiz session.
type Attempt struct {
	ID            string  `json:"id"`
	StudentID     string  `json:"studentId"`
	StudentName   string  `json:"studentName,omitempty"`
	SchoolID      string  `json:"schoolId,omitempty"`
	CompetitionID *string `json:"competitionId"` // nil for practice sessions
	Score         int     `json:"score"`
	MaxScore      int     `json:"maxScore"`
	// TotalQuestions is the number of questions actually presented.
	TotalQuestions   int       `json:"totalQuestions"`
	TimeSpentSeconds *int      `json:"timeSpent,omitempty"`
	LegacyTimeTaken  *int      `json:"timeTaken,omitempty"`
	QuestionsSeen    []string  `json:"questionsSeen"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TimeSpent prefers time_spent, then the legacy time_taken field.
func (a Attempt) TimeSpent() int {
	if a.TimeSpentSeconds != nil {
		return *a.TimeSpentSeconds
	}
	if a.LegacyTimeTaken != nil {
		return *a.LegacyTimeTaken
	}
	return NoTimeSentinel
}

// IsCompetition reports whether the attempt belongs to a competition.
func (a Attempt) IsCompetition() bool {
	return a.CompetitionID != nil && *a.CompetitionID != ""
}

// LeaderboardMode selects how attempts are folded per student.
type LeaderboardMode string

const (
	// LeaderboardBest keeps each student's single best attempt.
	LeaderboardBest LeaderboardMode = "best"
	// LeaderboardCumulative sums every attempt per student.
	LeaderboardCumulative LeaderboardMode = "cumulative"
)

// ParseLeaderboardMode accepts the API names, defaulting to best.
func ParseLeaderboardMode(raw string) (LeaderboardMode, error) {
	switch raw {
	case "", string(LeaderboardBest), "competition":
		return LeaderboardBest, nil
	case string(LeaderboardCumulative):
		return LeaderboardCumulative, nil
	}
	return "", ErrUnknownLeaderboardMode
}

// Medal marks the top three ranks.
type Medal string

const (
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
)

// MedalForRank returns the medal tier for a 1-based rank, or "" past third place.
func MedalForRank(rank int) Medal {
	switch rank {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	}
	return ""
}

// LeaderboardEntry is one ranked student.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName,omitempty"`
	Score       int    `json:"score"`
	TimeSpent   int    `json:"timeSpent"`
	Attempts    int    `json:"attempts"`
	Medal       Medal  `json:"medal,omitempty"`
}

// Leaderboard captures the ordered ranking for a scope.
type Leaderboard struct {
	Scope     string             `json:"scope"`
	Mode      LeaderboardMode    `json:"mode"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
