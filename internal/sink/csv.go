package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	ioutils "github.com/handiism/concert-scanner/internal/io"
	"github.com/handiism/concert-scanner/internal/model"
)

// Sink receives the concerts extracted from one image.
type Sink interface {
	// Append stores every concert of extraction and returns how many
	// records were written.
	Append(sourceImage string, extraction *model.ConcertExtraction) (int, error)
}

// CSV appends concert rows to a flat CSV file.
//
// The file is opened, written and closed on every Append, so each call is
// flushed on return. There is no locking: one writer at a time.
type CSV struct {
	path string
	now  func() time.Time
}

// NewCSV creates a CSV sink writing to path.
func NewCSV(path string) *CSV {
	return &CSV{path: path, now: time.Now}
}

// Path returns the output file path.
func (c *CSV) Path() string {
	return c.path
}

// Initialize creates the file with the header row if it does not exist.
//
// Existence is the only check: an existing file is never rewritten, even
// if its header is missing or damaged. Reports whether the file was created.
func (c *CSV) Initialize() (bool, error) {
	if _, err := os.Stat(c.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := ioutils.EnsureDir(dir); err != nil {
			return false, err
		}
	}

	// O_EXCL so a file created between Stat and here is left alone.
	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(model.Header); err != nil {
		f.Close()
		return false, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return false, err
	}
	return true, f.Close()
}

// Append writes one row per concert per band. All rows share the source
// image name and a single timestamp taken at the start of the call.
func (c *CSV) Append(sourceImage string, extraction *model.ConcertExtraction) (int, error) {
	rows := extraction.Rows(sourceImage, c.now())
	if len(rows) == 0 {
		return 0, nil
	}

	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return 0, err
	}

	w := csv.NewWriter(f)
	for _, row := range rows {
		if err := w.Write(row.Record()); err != nil {
			f.Close()
			return 0, fmt.Errorf("write %s: %w", c.path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return 0, fmt.Errorf("write %s: %w", c.path, err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	return len(rows), nil
}
