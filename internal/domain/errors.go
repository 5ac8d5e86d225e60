package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the core returns wraps exactly one of these.
var (
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyCompleted = errors.New("quiz already completed")
	ErrStorage          = errors.New("storage failure")
)

var (
	// ErrInvalidChoice is returned when an answer is not one of A, B, C, D.
	ErrInvalidChoice = fmt.Errorf("%w: choice must be one of A, B, C, D", ErrValidation)
	// ErrUnknownQuestion indicates the question is not part of the session snapshot.
	ErrUnknownQuestion = fmt.Errorf("%w: question not in session", ErrValidation)
	// ErrOutOfSequence indicates an answer for a question other than the current one.
	ErrOutOfSequence = fmt.Errorf("%w: answer out of sequence", ErrValidation)
	// ErrAlreadyAnswered indicates a different choice for an already answered question.
	ErrAlreadyAnswered = fmt.Errorf("%w: question already answered", ErrValidation)
	// ErrInvalidParticipant is returned for an empty participant id.
	ErrInvalidParticipant = fmt.Errorf("%w: participant id required", ErrValidation)
	// ErrInvalidQuestion is returned when a catalog question breaks its invariants.
	ErrInvalidQuestion = fmt.Errorf("%w: invalid question", ErrValidation)
	// ErrInvalidCategory is returned for a participant category outside domain.Categories.
	ErrInvalidCategory = fmt.Errorf("%w: category must be one of student_6, student_9, parent, teacher", ErrValidation)

	// ErrSessionActive is returned when opening a window while another one is active.
	ErrSessionActive = fmt.Errorf("%w: another session is active", ErrConflict)
	// ErrInProgress is returned when the participant already has a request in flight.
	ErrInProgress = fmt.Errorf("%w: request already in progress", ErrConflict)
	// ErrInvalidTransition rejects any status change other than active -> ended.
	ErrInvalidTransition = fmt.Errorf("%w: invalid session transition", ErrConflict)

	// ErrNoActiveSession is returned when no window is open.
	ErrNoActiveSession = fmt.Errorf("%w: no active session", ErrNotFound)
	// ErrSessionNotFound is returned for an unknown period key.
	ErrSessionNotFound = fmt.Errorf("%w: session not found", ErrNotFound)
	// ErrSessionEnded is returned when closing an already ended session.
	ErrSessionEnded = fmt.Errorf("%w: session already ended", ErrNotFound)
	// ErrNotStarted is returned when answering before Begin.
	ErrNotStarted = fmt.Errorf("%w: quiz not started", ErrNotFound)
	// ErrNoAnswers is returned when scoring a participant without answers.
	ErrNoAnswers = fmt.Errorf("%w: no answers recorded", ErrNotFound)
	// ErrNoQuestions is returned when the catalog has no active questions.
	ErrNoQuestions = fmt.Errorf("%w: no active questions", ErrNotFound)
	// ErrResultNotFound is returned when no result exists for a participant.
	ErrResultNotFound = fmt.Errorf("%w: result not found", ErrNotFound)
	// ErrParticipantNotFound is returned for an unknown participant.
	ErrParticipantNotFound = fmt.Errorf("%w: participant not found", ErrNotFound)
)

// StorageError wraps an unexpected persistence failure. It is retryable.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorage) true for every StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// Storage wraps err as a StorageError unless it already carries a domain kind.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != "" {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Outcome is the three-way result reported to callers.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeRejected
	OutcomeFailure
)

// Kind returns the short name of the error kind, or "" for foreign errors.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return ""
}

// Classify maps err to an Outcome. Business rejections are recoverable;
// anything else is a system failure.
func Classify(err error) Outcome {
	switch Kind(err) {
	case "":
		if err == nil {
			return OutcomeOK
		}
		return OutcomeFailure
	case "storage":
		return OutcomeFailure
	}
	return OutcomeRejected
}
