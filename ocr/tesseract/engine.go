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


// Package tesseract implements ocr.Engine over the Tesseract OCR library
// via gosseract. Requires libtesseract and language data at runtime.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/poiesic/keepsake/ocr"
)

// Engine extracts text from images using Tesseract. gosseract clients are
// not safe for concurrent use, so one is created and closed per call; this
// also guarantees the native resources are released on every exit path.
type Engine struct {
	languages []string
	logger    *slog.Logger
}

var _ ocr.Engine = (*Engine)(nil)

// NewEngine creates a Tesseract-backed OCR engine. languages selects the
// recognition models ("eng" when empty).
func NewEngine(languages ...string) *Engine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Engine{
		languages: languages,
		logger:    slog.Default().With("component", "tesseract"),
	}
}

// ExtractText runs Tesseract over the image bytes.
func (e *Engine) ExtractText(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("set ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("load ocr image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}

	text = strings.TrimSpace(text)
	e.logger.Debug("ocr complete", "bytes", len(image), "textLength", len(text))
	return text, nil
}
