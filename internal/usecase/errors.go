package usecase

import "errors"

// DomainError is a business rejection. Retrying it will never help.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is an infrastructure failure (network, database, broker)
// that a bounded retry may recover from.
type TechnicalError struct {
	Code    string
	Message string
	Cause   error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Cause
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

var (
	// ErrRunInProgress is returned when a batch run fires while a prior one
	// still holds the single-flight guard.
	ErrRunInProgress = errors.New("batch run already in progress")

	// ErrConversationNotFound marks an outcome event referencing an unknown
	// conversation. Handled as a warning, never an error response.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrAlreadyCompleted marks a mutation against a conversation that has
	// reached its terminal state. Applying again would double-count usage.
	ErrAlreadyCompleted = errors.New("conversation already completed")
)
