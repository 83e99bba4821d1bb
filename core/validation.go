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

import (
	"fmt"
	"time"
)

// ValidateItem validates an Item according to domain rules.
//
// Validation rules:
//   - Kind must be a valid ItemKind
//   - Status must be a valid ItemStatus
//   - Title must not be empty
//   - Link items must carry a SourceURL
//   - CreatedAt must not be in the future
//
// NOT validated (populated by the pipeline):
//   - Summary (may be empty until enrichment runs)
//   - ID (0 is valid from database sequences)
func ValidateItem(item *Item) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if err := ValidateKind(item.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	if err := ValidateStatus(item.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	if item.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyTitle)
	}

	if item.Kind == KindLink && item.SourceURL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrMissingSourceURL)
	}

	if !IsValidTimestamp(item.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateJob validates a Job according to domain rules.
//
// Validation rules:
//   - ItemId must not be zero
//   - Id must equal JobIDForItem(ItemId)
//   - Kind must be a valid ItemKind
func ValidateJob(job *Job) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}

	if job.ItemId == 0 {
		return fmt.Errorf("%w: item id is zero", ErrInvalidJob)
	}

	if job.Id != JobIDForItem(job.ItemId) {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrJobItemMismatch)
	}

	if err := ValidateKind(job.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	return nil
}

// ValidateKind validates that an ItemKind has a valid value.
func ValidateKind(kind ItemKind) error {
	if kind < KindText || kind > KindFile {
		return fmt.Errorf("%w: value %d", ErrInvalidKind, kind)
	}
	return nil
}

// ValidateStatus validates that an ItemStatus has a valid value.
func ValidateStatus(status ItemStatus) error {
	if status < StatusPending || status > StatusFailed {
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
	return nil
}

// ValidateMediaType validates that a MediaType has a valid value.
func ValidateMediaType(mt MediaType) error {
	if mt < MediaImage || mt > MediaDocument {
		return fmt.Errorf("%w: value %d", ErrInvalidMediaType, mt)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
