package diag

import "errors"

var (
	// ErrAnchorRepositoryRequired is returned when an anchor repository is not provided.
	ErrAnchorRepositoryRequired = errors.New("anchor repository required")

	// ErrRankerRequired is returned when a ranker is not provided.
	ErrRankerRequired = errors.New("ranker required")
)
