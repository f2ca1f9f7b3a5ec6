package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a quiz session is unknown or already discarded.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrCompetitionNotFound indicates the competition could not be loaded.
	ErrCompetitionNotFound = errors.New("competition not found")
	// ErrCompetitionInactive is returned when starting a competition that is switched off.
	ErrCompetitionInactive = errors.New("competition is not active")
	// ErrMaxAttemptsReached is returned when the student used every allowed attempt.
	ErrMaxAttemptsReached = errors.New("maximum attempts reached for this competition")
	// ErrSelectionExhausted means no eligible question exists for the competition scope.
	ErrSelectionExhausted = errors.New("no eligible questions for this competition, try again later")
	// ErrNoQuestions is returned when a practice session is started with an empty list.
	ErrNoQuestions = errors.New("practice session needs at least one question")
	// ErrOptionNotFound indicates a selected option is not part of the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrUnknownLeaderboardMode rejects leaderboard modes other than best and cumulative.
	ErrUnknownLeaderboardMode = errors.New("unknown leaderboard mode")
	// ErrInvalidCompetition wraps configuration problems found by Validate.
	ErrInvalidCompetition = errors.New("invalid competition")

	// ErrInvalidTransition is the parent of every rejected session operation.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrNoAnswerSelected blocks reveal until an option is chosen.
	ErrNoAnswerSelected = fmt.Errorf("%w: select an answer first", ErrInvalidTransition)
	// ErrNotRevealed blocks advance and submit before the answer is locked in.
	ErrNotRevealed = fmt.Errorf("%w: check the answer before moving on", ErrInvalidTransition)
	// ErrLastQuestion blocks advancing past the final question.
	ErrLastQuestion = fmt.Errorf("%w: already on the last question", ErrInvalidTransition)
	// ErrNotLastQuestion blocks manual submission before the final question.
	ErrNotLastQuestion = fmt.Errorf("%w: answer the remaining questions first", ErrInvalidTransition)
	// ErrSessionClosed rejects operations on completed or cancelled sessions.
	ErrSessionClosed = fmt.Errorf("%w: session already finished", ErrInvalidTransition)
)
