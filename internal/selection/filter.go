package selection

import "school-competition-service/internal/domain"

// IDSet is a set of question ids.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership; a nil set contains nothing.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Criteria selects questions from a pool.
type Criteria struct {
	GradeID   string
	SubjectID string
	Term      int
	// StartWeek and EndWeek are inclusive. When both are zero every week matches.
	StartWeek  int
	EndWeek    int
	Difficulty domain.Difficulty
	// Exclude drops listed ids.
	Exclude IDSet
	// Include, when non-nil, keeps only listed ids.
	Include IDSet
}

// CriteriaFor returns the competition scope for one difficulty bucket.
func CriteriaFor(c domain.Competition, d domain.Difficulty) Criteria {
	return Criteria{
		GradeID:    c.GradeID,
		SubjectID:  c.SubjectID,
		Term:       c.Term,
		StartWeek:  c.StartWeek,
		EndWeek:    c.EndWeek,
		Difficulty: d,
	}
}

// Matches reports whether q satisfies every criterion.
func (c Criteria) Matches(q domain.Question) bool {
	if q.GradeID != c.GradeID || q.SubjectID != c.SubjectID || q.Term != c.Term {
		return false
	}
	if !c.weekMatches(q.Week) {
		return false
	}
	if domain.NormalizeDifficulty(q.Difficulty) != c.Difficulty {
		return false
	}
	if c.Exclude.Has(q.ID) {
		return false
	}
	if c.Include != nil && !c.Include.Has(q.ID) {
		return false
	}
	return true
}

func (c Criteria) weekMatches(week int) bool {
	if week <= 0 {
		return true
	}
	if c.StartWeek == 0 && c.EndWeek == 0 {
		return true
	}
	return week >= c.StartWeek && week <= c.EndWeek
}

// Filter returns the questions of pool matching c, in pool order.
func Filter(pool []domain.Question, c Criteria) []domain.Question {
	out := make([]domain.Question, 0)
	for _, q := range pool {
		if c.Matches(q) {
			out = append(out, q)
		}
	}
	return out
}
