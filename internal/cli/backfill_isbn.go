package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"readingroom/internal/config"
	"readingroom/internal/database"
	"readingroom/internal/database/books"
)

// BackfillISBNCommand fills in missing ISBNs from a title-to-ISBN map.
type BackfillISBNCommand struct {
	FilePath     string
	DatabasePath string
}

func NewBackfillISBNCommand() *BackfillISBNCommand {
	return &BackfillISBNCommand{}
}

func (cmd *BackfillISBNCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("backfill-isbn", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to a JSON object mapping book titles to ISBNs (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s backfill-isbn -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fill in ISBNs for catalog books that lack one, matching titles\n")
		fmt.Fprintf(os.Stderr, "exactly first, then by substring in either direction.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *BackfillISBNCommand) Run() error {
	fmt.Println("ISBN Backfill")
	fmt.Println("=============")

	data, err := os.ReadFile(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("read ISBN map: %w", err)
	}

	var isbnByTitle map[string]string
	if err := json.Unmarshal(data, &isbnByTitle); err != nil {
		return fmt.Errorf("parse ISBN map: %w", err)
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	bookRepo := books.NewRepository(db.DB)

	missing, err := bookRepo.BooksMissingISBN()
	if err != nil {
		return fmt.Errorf("list books missing ISBN: %w", err)
	}
	fmt.Printf("Found %d books without an ISBN\n\n", len(missing))

	updated := 0
	notFound := 0
	for _, book := range missing {
		isbn := lookupISBN(isbnByTitle, book.Title)
		if isbn == "" {
			fmt.Printf("  no ISBN found for %q\n", book.Title)
			notFound++
			continue
		}
		if err := bookRepo.SetISBN(book.ID, isbn); err != nil {
			return fmt.Errorf("set ISBN for book #%d: %w", book.ID, err)
		}
		fmt.Printf("  %q -> %s\n", book.Title, isbn)
		updated++
	}

	fmt.Println()
	fmt.Printf("Updated:   %d\n", updated)
	fmt.Printf("Not found: %d\n", notFound)
	return nil
}

// lookupISBN matches a title exactly first, then falls back to a
// substring match in either direction (catalog titles often carry
// subtitles or edition suffixes the map omits).
func lookupISBN(isbnByTitle map[string]string, title string) string {
	if isbn, ok := isbnByTitle[title]; ok {
		return isbn
	}
	for key, isbn := range isbnByTitle {
		if strings.Contains(title, key) || strings.Contains(key, title) {
			return isbn
		}
	}
	return ""
}
