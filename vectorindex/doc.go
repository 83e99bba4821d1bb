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


// Package vectorindex provides an in-process nearest-neighbor store over
// embedding vectors.
//
// The Index interface is a deliberate seam: the enrichment worker writes
// through it and the search engine reads through it, so a disk-backed or
// sharded implementation can replace the in-memory one without either
// caller changing.
//
// The dimension of the index is fixed by the first upserted vector. Any
// vector of a different length, on upsert or search, fails with
// DimensionMismatchError rather than being truncated or padded.
package vectorindex
