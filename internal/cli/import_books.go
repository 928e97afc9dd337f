package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"readingroom/internal/config"
	"readingroom/internal/covers"
	"readingroom/internal/database"
	"readingroom/internal/database/books"
	"readingroom/internal/dedup"
	"readingroom/internal/importers"
)

// ImportBooksCommand seeds the catalog from a JSON book-list file.
type ImportBooksCommand struct {
	FilePath     string
	DatabasePath string
	UploadsDir   string
	DryRun       bool
}

func NewImportBooksCommand() *ImportBooksCommand {
	return &ImportBooksCommand{}
}

func (cmd *ImportBooksCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-books", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to a JSON file containing an array of candidate books (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database file")
	fs.StringVar(&cmd.UploadsDir, "uploads", config.DefaultUploadsDir, "Directory for localized cover images")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be imported without making changes")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-books -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Batch-import books from a JSON list into the catalog.\n\n")
		fmt.Fprintf(os.Stderr, "Books already present (matched by ISBN or external catalog ID) are\n")
		fmt.Fprintf(os.Stderr, "skipped. Covers are downloaded under a deterministic filename, so\n")
		fmt.Fprintf(os.Stderr, "re-running the command does not re-download existing images.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s import-books -file ./data/annual-books.json\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ImportBooksCommand) Run() error {
	fmt.Println("Book Import")
	fmt.Println("===========")

	data, err := os.ReadFile(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("read book list: %w", err)
	}

	var candidates []importers.Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return fmt.Errorf("parse book list: %w", err)
	}
	fmt.Printf("Found %d candidate books in %s\n", len(candidates), cmd.FilePath)

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		for _, candidate := range candidates {
			fmt.Printf("  would import: %s (%s)\n", candidate.Title, candidate.Author)
		}
		return nil
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	localizer, err := covers.NewLocalizer(cmd.UploadsDir)
	if err != nil {
		return fmt.Errorf("init cover localizer: %w", err)
	}

	bookRepo := books.NewRepository(db.DB)
	resolver := dedup.NewResolver(bookRepo)

	// The seed path reuses deterministic cover filenames so re-runs
	// skip images that are already on disk.
	importer := importers.NewImporter(resolver, deterministicLocalizer{localizer}, bookRepo)

	result, err := importer.Import(candidates)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Imported: %d\n", result.Imported)
	fmt.Printf("Skipped:  %d\n", result.Skipped)
	fmt.Printf("Failed:   %d\n", result.Failed)
	for _, item := range result.SkippedItems {
		fmt.Printf("  skipped %q: %s\n", item.Title, item.Reason)
	}
	return nil
}

// deterministicLocalizer routes localization through LocalizeExisting.
type deterministicLocalizer struct {
	*covers.Localizer
}

func (d deterministicLocalizer) Localize(rawURL, key string) string {
	return d.LocalizeExisting(rawURL, key)
}
