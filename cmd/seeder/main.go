package main

import (
	"bufio"
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"

	"github.com/poiesic/keepsake"
)

var notes = []string{
	"The quick brown fox jumps over the lazy dog.",
	"A gentle breeze rustled the leaves of the old oak tree.",
	"Coffee tastes better when nobody's watching.",
	"Grind finer when the espresso shot runs too fast.",
	"The abandoned lighthouse still broadcasts its warning every third Tuesday.",
	"Pick up a replacement charging cable for the bike computer.",
	"The gravel loop north of town is washed out past the second bridge.",
	"Sourdough starter needs feeding twice a day in summer.",
	"The landlord said the radiator will be fixed before November.",
	"Passwords became self-aware and changed themselves.",
	"The rubber duck solved the halting problem but won't tell anyone.",
	"Seventeen geese unanimously voted to relocate the pond.",
	"Tomato seedlings go outside after the last frost date, mid May here.",
	"The dentist moved to the office above the bakery on Elm Street.",
	"Docker containers escaped into the wild.",
	"Backup the photo archive before the laptop trade-in.",
	"The farmers market runs Saturdays eight to noon through October.",
	"Recursion stopped calling itself after therapy.",
	"Museum free admission is the first Sunday of every month.",
	"The state machine achieved enlightenment and became stateless.",
	"Swap winter tires the week after the first snowfall warning.",
	"The event loop got dizzy and sat down.",
	"Grandmother's dumpling recipe uses cold water, never warm.",
	"The fork bomb chose peaceful coexistence.",
	"Library books due back on the fourteenth.",
	"A bright comet streaked across the horizon at midnight.",
	"The kernel panicked about existential questions.",
	"Hiking boots need re-waterproofing before the coast trip.",
	"Semantic versioning lost all meaning at version 2.0.0.",
	"The wifi password for the cabin is taped inside the pantry door.",
}

var seedFileName = flag.String("src", "", "file of seed data, one note per line")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// captureAll captures each line as a note, then drains the enrichment queue
// every batchSize captures so the database fills incrementally.
func captureAll(ctx context.Context, k *keepsake.Keepsake, source iter.Seq[string], batchSize int) error {
	pending := 0

	for line := range source {
		if line == "" {
			continue
		}
		if _, err := k.CaptureText(ctx, "", line); err != nil {
			return err
		}
		pending++
		if pending == batchSize {
			if err := k.Process(ctx); err != nil {
				return err
			}
			pending = 0
		}
	}

	if pending > 0 {
		return k.Process(ctx)
	}
	return nil
}

func main() {
	k, err := keepsake.Open("./keepsake_db")
	if err != nil {
		panic(err)
	}
	defer k.Close()

	ctx := context.Background()

	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(notes)
	}

	// Drain enrichment every 5 captures
	if err := captureAll(ctx, k, source, 5); err != nil {
		panic(err)
	}
}
