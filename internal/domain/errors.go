package domain

import "errors"

var (
	// ErrInvalidInput signals an empty or malformed request, rejected before any external call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate record.
	ErrAlreadyExists = errors.New("already exists")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrMatchService signals a vector search failure in the storage backend.
	ErrMatchService = errors.New("match service error")
	// ErrPersistence signals a record write failure, distinct from embedding attachment.
	ErrPersistence = errors.New("persistence error")
)
