// Package export writes a session out as a CSV table, a plain-text
// transcript or a SQLite database.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwulff/sentiscribe/internal/db"
	"github.com/jwulff/sentiscribe/internal/ledger"
)

// Default file extensions.
const (
	CSVExt    = ".csv"
	TextExt   = ".txt"
	SQLiteExt = ".sqlite"
)

// Header is the first line of every CSV export. The spaces after the commas
// are part of the format, so it is written verbatim rather than through
// csv.Writer.
const Header = "Text, Sentiment, Polarity, Subjectivity, Timestamp"

var (
	// ErrNoData is returned when there is nothing to export.
	ErrNoData = errors.New("no data to export")
	// ErrCancelled is returned when no destination was chosen.
	ErrCancelled = errors.New("export cancelled")
)

// WriteCSV writes the header and one row per record. It returns the number
// of rows written.
func WriteCSV(w io.Writer, rows iter.Seq[ledger.Record]) (int, error) {
	if _, err := io.WriteString(w, Header+"\n"); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	cw := csv.NewWriter(w)
	n := 0
	for r := range rows {
		if err := cw.Write(r.Fields()); err != nil {
			return n, fmt.Errorf("write row %d: %w", n+1, err)
		}
		n++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	return n, nil
}

// SaveCSV writes the ledger to path as CSV.
func SaveCSV(path string, l *ledger.Ledger) error {
	if l.Len() == 0 {
		return ErrNoData
	}
	return writeFile(path, func(w io.Writer) error {
		_, err := WriteCSV(w, l.Rows())
		return err
	})
}

// SaveText writes a rendered transcript to path verbatim.
func SaveText(path string, transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return ErrNoData
	}
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, transcript)
		return err
	})
}

// SaveSQLite stores the ledger as a new session in the database at path,
// creating it if needed.
func SaveSQLite(path string, l *ledger.Ledger) (*db.Session, error) {
	if path == "" {
		return nil, ErrCancelled
	}
	records := l.Records()
	if len(records) == 0 {
		return nil, ErrNoData
	}

	store, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.SaveSession(l.StartedAt(), records)
}

// WithExtension appends ext to path when path has no extension.
func WithExtension(path, ext string) string {
	if path == "" || filepath.Ext(path) != "" {
		return path
	}
	return path + ext
}

// DefaultPath suggests a timestamped file name in dir.
func DefaultPath(dir, ext string, at time.Time) string {
	return filepath.Join(dir, "sentiment-"+at.Format("20060102-150405")+ext)
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return ErrCancelled
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
