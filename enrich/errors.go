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


package enrich

import "errors"

var (
	// ErrItemStoreRequired is returned when an item store is not provided.
	ErrItemStoreRequired = errors.New("item store required")

	// ErrAdapterRequired is returned when an AI adapter is not provided.
	ErrAdapterRequired = errors.New("ai adapter required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrMissingSourceURL is returned when a link item has no URL to fetch.
	ErrMissingSourceURL = errors.New("link item has no source url")

	// ErrNoBlobStore is returned when a file item's bytes are needed but no
	// blob store is configured.
	ErrNoBlobStore = errors.New("no blob store configured")
)
