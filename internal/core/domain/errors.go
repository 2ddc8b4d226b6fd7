package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery rejects empty or whitespace-only input. It is the
	// only condition that prevents producing a ResolutionResult.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrIndexUnavailable means the similarity index cannot be queried:
	// not built yet, or the embedding backend is down. Callers treat it
	// as "no match" for the affected line, never as a pipeline failure.
	ErrIndexUnavailable = errors.New("similarity index unavailable")

	// ErrDecompositionFailed means the structured parse produced nothing
	// usable. The heuristic fallback always recovers it.
	ErrDecompositionFailed = errors.New("query decomposition failed")

	ErrNotFound  = errors.New("not found")
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
