package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"school-competition-service/internal/app"
	"school-competition-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// QuestionCache caches question pools per scope with TTL to avoid repeated DB hits.
type QuestionCache struct {
	loader app.QuestionRepository
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(loader app.QuestionRepository, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPool),
	}
}

func (c *QuestionCache) ListQuestions(ctx context.Context, scope domain.QuestionScope) ([]domain.Question, error) {
	key := ScopeKey(scope)
	if questions, ok := c.lookup(key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if questions, ok := c.lookup(key); ok {
			return questions, nil
		}

		questions, err := c.loader.ListQuestions(ctx, scope)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = cachedPool{
			questions: questions,
			expiresAt: c.clock().Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) lookup(key string) ([]domain.Question, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		return entry.questions, true
	}
	return nil, false
}

// ScopeKey identifies a question pool.
func ScopeKey(scope domain.QuestionScope) string {
	return scope.GradeID + ":" + scope.SubjectID + ":" + strconv.Itoa(scope.Term)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
