package model

import "time"

// TimestampLayout renders row timestamps as ISO-8601 with microseconds and
// the local UTC offset.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Header is the fixed column list of the output CSV.
var Header = []string{"timestamp", "source_image", "band_name", "venue", "location", "date", "event_name"}

// Row is one line of the output CSV: a single (image, band, concert) triple
// stamped with the time it was processed.
type Row struct {
	Timestamp   time.Time
	SourceImage string
	BandName    string
	Venue       string
	Location    string
	Date        string
	EventName   string
}

// Record returns the row as CSV fields in Header order.
func (r Row) Record() []string {
	return []string{
		r.Timestamp.Format(TimestampLayout),
		r.SourceImage,
		r.BandName,
		r.Venue,
		r.Location,
		r.Date,
		r.EventName,
	}
}

// Rows flattens the extraction into one row per concert per band, in order.
// Every row carries the same source image name and timestamp; a missing
// event name becomes an empty field.
func (e *ConcertExtraction) Rows(sourceImage string, ts time.Time) []Row {
	rows := make([]Row, 0, e.ConcertCount())
	if e == nil {
		return rows
	}
	for _, band := range e.Bands {
		for _, c := range band.Concerts {
			rows = append(rows, Row{
				Timestamp:   ts,
				SourceImage: sourceImage,
				BandName:    band.BandName,
				Venue:       c.Venue,
				Location:    c.Location,
				Date:        c.Date,
				EventName:   c.Event(),
			})
		}
	}
	return rows
}
