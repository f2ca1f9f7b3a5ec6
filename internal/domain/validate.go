package domain

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks field ranges and the cross-field rules of a competition.
func (c Competition) Validate() error {
	if err := Validator().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCompetition, err)
	}
	if c.EndWeek < c.StartWeek {
		return fmt.Errorf("%w: end week %d before start week %d", ErrInvalidCompetition, c.EndWeek, c.StartWeek)
	}
	if c.TotalQuestions() == 0 {
		return fmt.Errorf("%w: all quotas are zero", ErrInvalidCompetition)
	}
	return nil
}
