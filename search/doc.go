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


// Package search retrieves captured items by free-text query.
//
// A query first passes through the interpreter, which detects kind filters
// ("images with dog" scopes to image files) and strips filler words. Semantic
// (vector similarity) and keyword search then run concurrently; items found
// by both paths get a weighted hybrid score, items found by one keep that
// path's score. When nothing matches but a kind filter was detected, the
// searcher falls back to browsing that kind rather than returning nothing.
package search
