// Package selection picks the questions of a competition attempt.
package selection

import (
	"math/rand/v2"
	"sync"
	"time"

	"school-competition-service/internal/domain"
)

// BucketFill records how one difficulty bucket was filled.
type BucketFill struct {
	Quota  int `json:"quota"`
	Fresh  int `json:"fresh"`
	Reused int `json:"reused"`
}

// Filled is the number of questions the bucket contributed.
func (b BucketFill) Filled() int { return b.Fresh + b.Reused }

// Selection is the shuffled question list of one attempt.
type Selection struct {
	Questions []domain.Question
	Requested int
	Buckets   map[domain.Difficulty]BucketFill
}

// Partial reports that at least one bucket could not meet its quota.
func (s Selection) Partial() bool {
	return len(s.Questions) < s.Requested
}

// Selector samples questions per difficulty quota, preferring unseen ones.
// It is safe for concurrent use.
type Selector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector returns a selector over a time-seeded source.
func NewSelector() *Selector {
	seed := uint64(time.Now().UnixNano())
	return NewSelectorWithSource(rand.NewPCG(seed, seed>>1|1))
}

// NewSelectorWithSource allows a fixed source in tests.
func NewSelectorWithSource(src rand.Source) *Selector {
	return &Selector{rnd: rand.New(src)}
}

// Select builds the attempt for a competition. seen holds every question id the
// student has been shown before, across all competitions.
func (s *Selector) Select(pool []domain.Question, c domain.Competition, seen IDSet) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := Selection{
		Requested: c.TotalQuestions(),
		Buckets:   make(map[domain.Difficulty]BucketFill, len(domain.Difficulties)),
	}
	for _, d := range domain.Difficulties {
		quota := c.Quota(d)
		if quota <= 0 {
			continue
		}
		criteria := CriteriaFor(c, d)

		fresh := criteria
		fresh.Exclude = seen
		freshPool := Filter(pool, fresh)

		fill := BucketFill{Quota: quota}
		if len(freshPool) >= quota {
			sel.Questions = append(sel.Questions, s.sample(freshPool, quota)...)
			fill.Fresh = quota
		} else {
			sel.Questions = append(sel.Questions, freshPool...)
			fill.Fresh = len(freshPool)

			reuse := criteria
			reuse.Include = seen
			if reuse.Include == nil {
				reuse.Include = IDSet{}
			}
			reused := s.sample(Filter(pool, reuse), quota-len(freshPool))
			sel.Questions = append(sel.Questions, reused...)
			fill.Reused = len(reused)
		}
		sel.Buckets[d] = fill
	}

	if len(sel.Questions) == 0 {
		return sel, domain.ErrSelectionExhausted
	}
	s.rnd.Shuffle(len(sel.Questions), func(i, j int) {
		sel.Questions[i], sel.Questions[j] = sel.Questions[j], sel.Questions[i]
	})
	return sel, nil
}

// sample picks up to n items uniformly without replacement.
func (s *Selector) sample(pool []domain.Question, n int) []domain.Question {
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]domain.Question, 0, n)
	for _, ix := range s.rnd.Perm(len(pool))[:n] {
		out = append(out, pool[ix])
	}
	return out
}
