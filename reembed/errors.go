package reembed

import "errors"

var (
	// ErrItemStoreRequired indicates a nil item store was passed.
	ErrItemStoreRequired = errors.New("item store is required")

	// ErrAdapterRequired indicates a nil AI adapter was passed.
	ErrAdapterRequired = errors.New("ai adapter is required")

	// ErrIndexRequired indicates a nil vector index was passed.
	ErrIndexRequired = errors.New("vector index is required")
)
