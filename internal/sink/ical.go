package sink

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	ioutils "github.com/handiism/concert-scanner/internal/io"
	"github.com/handiism/concert-scanner/internal/model"
)

// ICal exports concerts with a readable date to an iCalendar file.
//
// Events already in the file are kept; new ones are added and the whole
// calendar is rewritten atomically. Concerts whose date cannot be parsed
// are skipped.
type ICal struct {
	path string
	now  func() time.Time
}

// NewICal creates a calendar sink writing to path.
func NewICal(path string) *ICal {
	return &ICal{path: path, now: time.Now}
}

// Path returns the output file path.
func (c *ICal) Path() string {
	return c.path
}

// Append adds one VEVENT per concert with a parseable date and returns how
// many were added.
func (c *ICal) Append(sourceImage string, extraction *model.ConcertExtraction) (int, error) {
	if extraction.Empty() {
		return 0, nil
	}

	cal, err := c.load()
	if err != nil {
		return 0, err
	}

	now := c.now()
	added := 0
	for _, band := range extraction.Bands {
		for _, concert := range band.Concerts {
			day, ok := ParseDate(concert.Date, now)
			if !ok {
				continue
			}
			e := cal.AddEvent(uuid.NewString())
			e.SetCreatedTime(now)
			e.SetDtStampTime(now)
			e.SetModifiedAt(now)
			// All-day dates, so no time zone shifts the concert to another day.
			e.SetAllDayStartAt(day)
			e.SetAllDayEndAt(day.AddDate(0, 0, 1))
			e.SetSummary(eventSummary(band.BandName, concert))
			e.SetLocation(eventLocation(concert))
			e.SetDescription(fmt.Sprintf("Listed on %s (date as printed: %s)", sourceImage, concert.Date))
			added++
		}
	}

	if added == 0 {
		return 0, nil
	}
	return added, c.save(cal)
}

func (c *ICal) load() (*ical.Calendar, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		cal := ical.NewCalendar()
		cal.SetMethod(ical.MethodPublish)
		cal.SetProductId("-//concert-scanner//Concert Listings//EN")
		return cal, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cal, err := ical.ParseCalendar(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.path, err)
	}
	return cal, nil
}

func (c *ICal) save(cal *ical.Calendar) error {
	dir := filepath.Dir(c.path)
	if err := ioutils.EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".concerts-*.ics")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := cal.SerializeTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

func eventSummary(band string, c model.Concert) string {
	if c.HasEvent() {
		return fmt.Sprintf("%s at %s (%s)", band, c.Venue, c.Event())
	}
	return fmt.Sprintf("%s at %s", band, c.Venue)
}

func eventLocation(c model.Concert) string {
	switch {
	case c.Venue == "" || c.Venue == model.Unknown:
		return c.Location
	case c.Location == "" || c.Location == model.Unknown:
		return c.Venue
	}
	return c.Venue + ", " + c.Location
}
