// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
)

// ErrNoProvider indicates that an operation requiring a configured provider
// was invoked on an Adapter with no providers.
var ErrNoProvider = errors.New("no AI provider configured")

// ModelUnavailableError indicates that the requested model does not exist or
// is not loaded on the backend. This is the only error class that triggers
// fallback to a secondary provider.
type ModelUnavailableError struct {
	// Model is the model identifier that was requested.
	Model string

	// Err is the underlying provider error.
	Err error
}

// Error implements the error interface.
func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %q unavailable: %v", e.Model, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}

// IsModelUnavailable reports whether err is or wraps a ModelUnavailableError.
func IsModelUnavailable(err error) bool {
	var mu *ModelUnavailableError
	return errors.As(err, &mu)
}
