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


package search

import (
	"strings"

	"github.com/poiesic/keepsake/core"
)

// Filter scopes a search to one content kind, detected from the query.
type Filter struct {
	// Kind is the item kind to scope to.
	Kind core.ItemKind

	// ImageOnly further restricts file items to those with image media.
	ImageOnly bool
}

// kindRule binds a category's trigger keywords to the filter it produces.
// Rules are evaluated in order and the first matching rule wins, so the
// ordering below is policy: image before link before note before file before
// todo resolves keyword overlaps deterministically.
type kindRule struct {
	category  string
	keywords  map[string]bool
	kind      core.ItemKind
	imageOnly bool
}

var kindRules = []kindRule{
	{
		category: "image",
		keywords: words("image", "images", "photo", "photos", "picture", "pictures",
			"screenshot", "screenshots"),
		kind:      core.KindFile,
		imageOnly: true,
	},
	{
		category: "link",
		keywords: words("link", "links", "url", "urls", "article", "articles",
			"website", "websites"),
		kind: core.KindLink,
	},
	{
		category: "note",
		keywords: words("note", "notes", "memo", "memos"),
		kind:     core.KindText,
	},
	{
		category: "file",
		keywords: words("file", "files", "document", "documents", "pdf", "pdfs"),
		kind:     core.KindFile,
	},
	{
		// There is no todo item kind; todos are notes. The slot stays last
		// so "task file" still reads as a file query.
		category: "todo",
		keywords: words("todo", "todos", "task", "tasks"),
		kind:     core.KindText,
	},
}

func words(ws ...string) map[string]bool {
	set := make(map[string]bool, len(ws))
	for _, w := range ws {
		set[w] = true
	}
	return set
}

// Interpret detects a kind filter in the query and strips filter keywords and
// filler words from it. A nil filter means the query carries no kind signal.
// An empty cleaned query together with a non-nil filter means "browse all of
// this kind".
func Interpret(query string) (*Filter, string) {
	tokens := strings.Fields(query)

	var matched *kindRule
	for i := range kindRules {
		rule := &kindRules[i]
		for _, token := range tokens {
			if rule.keywords[normalizeToken(token)] {
				matched = rule
				break
			}
		}
		if matched != nil {
			break
		}
	}
	if matched == nil {
		return nil, strings.TrimSpace(query)
	}

	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		normalized := normalizeToken(token)
		if matched.keywords[normalized] || stopWords[normalized] {
			continue
		}
		kept = append(kept, token)
	}

	return &Filter{Kind: matched.kind, ImageOnly: matched.imageOnly},
		strings.Join(kept, " ")
}

func normalizeToken(token string) string {
	return strings.ToLower(strings.Trim(token, ".,!?;:'\"-()[]{}"))
}
