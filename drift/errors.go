package drift

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrAnchorRepositoryRequired is returned when an anchor repository is not provided.
	ErrAnchorRepositoryRequired = errors.New("anchor repository required")

	// ErrLogRepositoryRequired is returned when a grounding log repository is not provided.
	ErrLogRepositoryRequired = errors.New("grounding log repository required")

	// ErrDriftRepositoryRequired is returned when a drift repository is not provided.
	ErrDriftRepositoryRequired = errors.New("drift repository required")

	// ErrSuggesterRequired is returned when a suggestion generator is not provided.
	ErrSuggesterRequired = errors.New("suggestion generator required")

	// ErrSuggestionFailed means the external suggestion call failed after
	// retries. The anchor's mutation status stays none.
	ErrSuggestionFailed = errors.New("mutation suggestion failed")

	// ErrNoSuggestion means the generator had no replacement to offer.
	ErrNoSuggestion = errors.New("no suggestion available")

	// ErrMalformedSuggestion means the generator responded but the reply
	// could not be parsed into a suggestion.
	ErrMalformedSuggestion = errors.New("malformed suggestion")
)
