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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/keepsake"
	"github.com/poiesic/keepsake/ai"
	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/ocr/tesseract"
	"github.com/poiesic/keepsake/reembed"
	"github.com/poiesic/keepsake/search"
)

func main() {
	app := &cli.App{
		Name:  "keepsake",
		Usage: "Capture notes, links, and files; find them again by meaning",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the database directory",
				Value:   "./keepsake_db",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "AI backend (local, remote, none)",
				Value: "local",
			},
			&cli.StringFlag{
				Name:  "ai-host",
				Usage: "OpenAI-compatible API base URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:    "ai-token",
				Usage:   "API token for the AI backend",
				EnvVars: []string{"KEEPSAKE_AI_TOKEN"},
			},
			&cli.StringFlag{
				Name:  "fallback-backend",
				Usage: "Secondary AI backend consulted when the primary's model is unavailable (local, remote)",
			},
			&cli.StringFlag{
				Name:    "fallback-host",
				Usage:   "API base URL for the fallback backend",
				EnvVars: []string{"KEEPSAKE_FALLBACK_HOST"},
			},
			&cli.StringFlag{
				Name:    "fallback-token",
				Usage:   "API token for the fallback backend",
				EnvVars: []string{"KEEPSAKE_FALLBACK_TOKEN"},
			},
			&cli.BoolFlag{
				Name:  "ocr",
				Usage: "Run Tesseract OCR on captured images (requires libtesseract)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "capture",
				Usage: "Capture content for later retrieval",
				Subcommands: []*cli.Command{
					{
						Name:      "text",
						Usage:     "Capture a note",
						ArgsUsage: "<text>",
						Action:    captureTextCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "title",
								Aliases: []string{"t"},
								Usage:   "Note title (defaults to the first line)",
							},
						},
					},
					{
						Name:      "link",
						Usage:     "Capture a web link",
						ArgsUsage: "<url>",
						Action:    captureLinkCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "title",
								Aliases: []string{"t"},
								Usage:   "Link title (defaults to the page title after enrichment)",
							},
						},
					},
					{
						Name:      "file",
						Usage:     "Capture a file from disk",
						ArgsUsage: "<path>",
						Action:    captureFileCommand,
					},
				},
			},
			{
				Name:   "process",
				Usage:  "Run pending enrichment jobs and exit",
				Action: processCommand,
			},
			{
				Name:   "serve",
				Usage:  "Process enrichment jobs continuously until interrupted",
				Action: serveCommand,
			},
			{
				Name:      "search",
				Usage:     "Search captured items",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Minimum similarity score for semantic matches",
						Value: 0.3,
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print each search stage",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List captured items, newest first",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "Filter by kind (text, link, file)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of items",
						Value:   20,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate embeddings for all items (run after switching AI backends)",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items to embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N items",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "show",
				Usage:     "Show an item with its content",
				ArgsUsage: "<id>",
				Action:    showCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete an item and everything attached to it",
				ArgsUsage: "<id>",
				Action:    deleteCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openStore(c *cli.Context) (*keepsake.Keepsake, error) {
	opts := []keepsake.KeepsakeOption{}

	backend := strings.ToLower(c.String("backend"))
	switch backend {
	case "none":
		opts = append(opts, keepsake.WithoutAIProvider())
	case "local", "remote":
		cfg := ai.NewConfig(
			ai.WithBackend(parseBackend(backend)),
			ai.WithHost(c.String("ai-host")),
			ai.WithToken(c.String("ai-token")),
		)
		opts = append(opts, keepsake.WithAIConfig(cfg))
	default:
		return nil, fmt.Errorf("invalid backend %q: must be one of local, remote, none", backend)
	}

	if fb := strings.ToLower(c.String("fallback-backend")); fb != "" {
		if fb != "local" && fb != "remote" {
			return nil, fmt.Errorf("invalid fallback-backend %q: must be local or remote", fb)
		}
		cfg := ai.NewConfig(
			ai.WithBackend(parseBackend(fb)),
			ai.WithHost(c.String("fallback-host")),
			ai.WithToken(c.String("fallback-token")),
		)
		opts = append(opts, keepsake.WithSecondaryAIConfig(cfg))
	}

	if c.Bool("ocr") {
		opts = append(opts, keepsake.WithOCREngine(tesseract.NewEngine()))
	}

	return keepsake.Open(c.String("db"), opts...)
}

func parseBackend(name string) ai.Backend {
	if name == "remote" {
		return ai.BackendRemote
	}
	return ai.BackendLocal
}

func captureTextCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("text is required")
	}
	text := strings.Join(c.Args().Slice(), " ")

	k, err := openStore(c)
	if err != nil {
		return err
	}
	defer k.Close()

	item, err := k.CaptureText(context.Background(), c.String("title"), text)
	if err != nil {
		return err
	}
	fmt.Printf("captured note %d: %s\n", item.Id, item.Title)
	return nil
}

func captureLinkCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one URL is required")
	}

	k, err := openStore(c)
	if err != nil {
		return err
	}
	defer k.Close()

	item, err := k.CaptureLink(context.Background(), c.String("title"), c.Args().First())
	if err != nil {
		return err
	}
	fmt.Printf("captured link %d: %s\n", item.Id, item.SourceURL)
	return nil
}

func captureFileCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one file path is required")
	}
	path := c.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	k, err := openStore(c)
	if err != nil {
		return err
	}
	defer k.Close()

	name := filepath.Base(path)
	item, err := k.CaptureFile(context.Background(), name, data, mediaTypeFor(name))
	if err != nil {
		return err
	}
	fmt.Printf("captured file %d: %s (%d bytes)\n", item.Id, item.Title, len(data))
	return nil
}

// mediaTypeFor maps a filename extension onto a media type, defaulting to
// document for anything unrecognized.
func mediaTypeFor(name string) core.MediaType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tiff":
		return core.MediaImage
	case ".mp4", ".mov", ".webm", ".mkv":
		return core.MediaVideo
	case ".mp3", ".wav", ".ogg", ".flac", ".m4a":
		return core.MediaAudio
	default:
		return core.MediaDocument
	}
}

func processCommand(c *cli.Context) error {
	k, err := openStore(c)
	if err != nil {
		return err
	}
	defer k.Close()

	return k.Process(context.Background())
}

func reembedCommand(c *cli.Context) error {
	k, err := openStore(c)
	if err != nil {
		return err
	}
	defer k.Close()

	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	if err := k.ReembedAll(context.Background(), config, os.Stderr); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	k, err := openStore(c)
	if err != nil {
		return err
	}
	defer k.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	k.Start(ctx)
	fmt.Fprintln(os.Stderr, "processing enrichment jobs; press Ctrl-C to stop")
	<-ctx.Done()
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("a query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	k, err := openStore(c)
	if err != nil {
		return err
	}
	defer k.Close()

	ctx := context.Background()
	var results []*core.SearchResult
	if c.Bool("verbose") {
		searcher, err := k.NewSearcher(search.WithMonitor(&printMonitor{out: os.Stderr}))
		if err != nil {
			return err
		}
		results, err = searcher.Search(ctx, query, c.Int("limit"), float32(c.Float64("min-score")))
		if err != nil {
			return err
		}
	} else {
		results, err = k.Search(ctx, query, c.Int("limit"), float32(c.Float64("min-score")))
		if err != nil {
			return err
		}
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, hit := range results {
		fmt.Printf("%2d. [%0.3f %s] %s (%s %d)\n",
			i+1, hit.Score, hit.Source, hit.Item.Title, hit.Item.Kind, hit.Item.Id)
		if hit.Item.Summary != "" {
			fmt.Printf("    %s\n", hit.Item.Summary)
		}
	}
	return nil
}

func listCommand(c *cli.Context) error {
	k, err := openStore(c)
	if err != nil {
		return err
	}
	defer k.Close()

	var kind *core.ItemKind
	if name := c.String("kind"); name != "" {
		parsed, err := parseKind(name)
		if err != nil {
			return err
		}
		kind = &parsed
	}

	items, err := k.ListItems(context.Background(), kind, c.Int("limit"))
	if err != nil {
		return err
	}
	for _, item := range items {
		fmt.Printf("%d\t%s\t%s\t%s\n", item.Id, item.Kind, item.Status, item.Title)
	}
	return nil
}

func parseKind(name string) (core.ItemKind, error) {
	switch strings.ToLower(name) {
	case "text", "note":
		return core.KindText, nil
	case "link":
		return core.KindLink, nil
	case "file":
		return core.KindFile, nil
	default:
		return 0, fmt.Errorf("invalid kind %q: must be one of text, link, file", name)
	}
}

func showCommand(c *cli.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	k, err := openStore(c)
	if err != nil {
		return err
	}
	defer k.Close()

	detail, err := k.GetItem(context.Background(), id)
	if err != nil {
		return err
	}

	item := detail.Item
	fmt.Printf("id:      %d\n", item.Id)
	fmt.Printf("kind:    %s\n", item.Kind)
	fmt.Printf("status:  %s\n", item.Status)
	fmt.Printf("title:   %s\n", item.Title)
	if item.SourceURL != "" {
		fmt.Printf("source:  %s\n", item.SourceURL)
	}
	if item.Summary != "" {
		fmt.Printf("summary: %s\n", item.Summary)
	}
	if detail.Content.Text != "" {
		fmt.Printf("\n%s\n", detail.Content.Text)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	k, err := openStore(c)
	if err != nil {
		return err
	}
	defer k.Close()

	if err := k.DeleteItem(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("deleted item %d\n", id)
	return nil
}

func parseID(c *cli.Context) (core.ID, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("exactly one item ID is required")
	}
	n, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid item ID %q", c.Args().First())
	}
	return core.ID(n), nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// printMonitor writes each search stage to out. Enabled by --verbose.
type printMonitor struct {
	out *os.File
}

func (m *printMonitor) Start(query string) {
	fmt.Fprintf(m.out, "query: %q\n", query)
}

func (m *printMonitor) AfterInterpret(filter *search.Filter, cleaned string) {
	if filter == nil {
		fmt.Fprintln(m.out, "interpret: no kind signal")
		return
	}
	fmt.Fprintf(m.out, "interpret: kind=%s imageOnly=%v cleaned=%q\n",
		filter.Kind, filter.ImageOnly, cleaned)
}

func (m *printMonitor) AfterSemanticSearch(matches []*core.SimilarityMatch) {
	fmt.Fprintf(m.out, "semantic: %d candidates\n", len(matches))
}

func (m *printMonitor) AfterKeywordSearch(matches []*core.KeywordMatch) {
	fmt.Fprintf(m.out, "keyword: %d candidates\n", len(matches))
}

func (m *printMonitor) BrowseFallback(kind core.ItemKind) {
	fmt.Fprintf(m.out, "browse fallback: kind=%s\n", kind)
}

func (m *printMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(m.out, "results: %d\n", len(results))
}
