// Command validate checks server settings files before deployment. For each
// file it reports:
//   - JSON syntax and unknown fields
//   - every out-of-range value, not just the first
//   - a summary of the effective listener, persistence and bot settings
//
// Files are taken from the arguments, or configs/*.json when none are given.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/wricardo/connect-four-arena/game/config"
)

// ValidationResult captures the outcome of validating a single file.
// Errors lists problems for invalid files; Notes summarizes valid ones.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Notes  []string
}

func validateSettings(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	settings, err := config.Decode(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if problems := settings.Problems(); len(problems) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, problems...)
		return result
	}

	result.Notes = describe(settings)
	return result
}

// describe summarizes valid settings and flags combinations that work but
// are likely mistakes
func describe(s *config.Settings) []string {
	notes := []string{
		fmt.Sprintf("Listening on %s", s.Addr()),
	}

	if s.RedisAddr != "" {
		notes = append(notes, fmt.Sprintf("Stats persisted to redis at %s (db %d)", s.RedisAddr, s.RedisDB))
	} else {
		notes = append(notes, "Stats persistence disabled (no redis_addr)")
	}

	notes = append(notes,
		fmt.Sprintf("Bot fallback after %s, depth %d, think %s-%s",
			s.FallbackDelay.Std(), s.BotDepth, s.BotThinkMin.Std(), s.BotThinkMax.Std()),
		fmt.Sprintf("Forfeit after %s disconnected, finished games kept %s",
			s.AbandonTimeout.Std(), s.Retention.Std()),
	)

	if s.SweepInterval > s.AbandonTimeout {
		notes = append(notes, "Warning: sweep_interval exceeds abandon_timeout; forfeits will be late")
	}
	if s.BotDepth > 7 {
		notes = append(notes, "Warning: bot_depth above 7 can make bot moves slow")
	}

	return notes
}

func report(w io.Writer, results []ValidationResult) bool {
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, note := range result.Notes {
				fmt.Fprintln(w, "  "+note)
			}
			continue
		}

		fmt.Fprintln(w, "❌ INVALID")
		for _, err := range result.Errors {
			fmt.Fprintln(w, "  ❌ "+err)
		}
	}

	allValid := lo.EveryBy(results, func(r ValidationResult) bool {
		return r.Valid
	})

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All settings files are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some settings files have errors")
	}
	return allValid
}

func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		matches, err := filepath.Glob(filepath.Join("configs", "*.json"))
		if err != nil {
			fmt.Printf("Error finding settings files: %v\n", err)
			os.Exit(1)
		}
		files = matches
	}
	if len(files) == 0 {
		fmt.Println("No settings files found")
		os.Exit(1)
	}

	results := lo.Map(files, func(file string, _ int) ValidationResult {
		return validateSettings(file)
	})

	if !report(os.Stdout, results) {
		os.Exit(1)
	}
}
