package mock

import (
	"context"
	"fmt"
	"sync"
)

// Vision is a test double for ai.Vision.
// It allows custom behavior injection via a function field.
// Safe for concurrent use, matching the interface contract.
type Vision struct {
	// DescribeImageFunc is called by DescribeImage if set.
	// If nil, returns a fixed description mentioning the byte count.
	DescribeImageFunc func(ctx context.Context, mimeType string, data []byte) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewVision creates a mock vision service with default behavior.
// Returns the concrete type so tests can set the function field and read counts.
func NewVision() *Vision {
	return &Vision{}
}

// DescribeImage returns a fixed description by default.
func (m *Vision) DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.DescribeImageFunc != nil {
		return m.DescribeImageFunc(ctx, mimeType, data)
	}
	return fmt.Sprintf("a mock image of type %s (%d bytes)", mimeType, len(data)), nil
}

// CallCount returns the number of times DescribeImage was called.
func (m *Vision) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and the custom function.
func (m *Vision) Reset() {
	m.mu.Lock()
	m.callCount = 0
	m.mu.Unlock()
	m.DescribeImageFunc = nil
}
