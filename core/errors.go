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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidItem indicates an Item failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrInvalidJob indicates a Job failed validation.
	ErrInvalidJob = errors.New("invalid job")

	// ErrInvalidKind indicates an invalid ItemKind value.
	ErrInvalidKind = errors.New("invalid item kind")

	// ErrInvalidStatus indicates an invalid ItemStatus value.
	ErrInvalidStatus = errors.New("invalid item status")

	// ErrInvalidMediaType indicates an invalid MediaType value.
	ErrInvalidMediaType = errors.New("invalid media type")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrMissingSourceURL indicates a link item has no source URL.
	ErrMissingSourceURL = errors.New("link item requires a source url")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrJobItemMismatch indicates a job ID that does not match its item.
	ErrJobItemMismatch = errors.New("job id does not match item id")
)
