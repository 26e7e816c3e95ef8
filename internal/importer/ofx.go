package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/pennywise/internal/ofx"
)

// StatementFile summarizes one parsed statement.
type StatementFile struct {
	Path       string
	Accounts   []string
	Entries    int
	Debits     int
	Duplicates int
	Transfers  int
}

// ReadStatements parses OFX/QFX files and returns one row per unique debit.
// The same transaction appearing in overlapping statements is kept once.
// Debits matched by transfers are skipped; a nil detector keeps them all.
func ReadStatements(ctx context.Context, paths []string, transfers *TransferDetector) ([]Row, []StatementFile, error) {
	parser := ofx.NewParser()
	seen := make(map[string]bool)

	var rows []Row
	files := make([]StatementFile, 0, len(paths))

	for _, path := range paths {
		entries, err := parseStatement(ctx, parser, path)
		if err != nil {
			return nil, nil, err
		}

		debits := ofx.Debits(entries)
		file := StatementFile{
			Path:     path,
			Accounts: ofx.Accounts(entries),
			Entries:  len(entries),
			Debits:   len(debits),
		}

		for _, e := range debits {
			key := e.AccountID + "|" + e.FITID
			if e.FITID != "" && seen[key] {
				file.Duplicates++
				continue
			}
			seen[key] = true
			if name, ok := transfers.Match(e.Description + " " + e.Type); ok {
				slog.Debug("Skipping transfer", "description", e.Description, "pattern", name)
				file.Transfers++
				continue
			}
			rows = append(rows, Row{
				Date:        e.Date,
				Description: e.Description,
				Reference:   e.FITID,
				Amount:      e.Amount,
			})
		}

		slog.Info("Processed statement",
			"file", filepath.Base(path),
			"entries", file.Entries,
			"debits", file.Debits,
			"duplicates", file.Duplicates,
			"transfers", file.Transfers)
		files = append(files, file)
	}

	return rows, files, nil
}

func parseStatement(ctx context.Context, parser *ofx.Parser, path string) ([]ofx.Entry, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	entries, err := parser.ParseFile(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

// ExpandPatterns resolves glob patterns to files. Patterns without matches are
// kept when they name an existing file.
func ExpandPatterns(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	return files, nil
}
