package model

// Unknown is the placeholder the model uses for a field it could not read.
const Unknown = "Unknown"

// Concert is a single performance listed on a poster.
//
// Date is kept exactly as the model read it ("Sat 12 Oct", "2025-10-12",
// "Unknown" ...). It is never validated as a calendar date.
type Concert struct {
	// Venue is the club, hall or stage name.
	Venue string `json:"venue"`

	// Location is the city or address of the venue.
	Location string `json:"location"`

	// Date is the free-form concert date.
	Date string `json:"date"`

	// EventName is the festival or tour name, nil when the concert is not
	// part of a named event.
	EventName *string `json:"event_name"`
}

// Event returns the event name, or an empty string when there is none.
func (c Concert) Event() string {
	if c.EventName == nil {
		return ""
	}
	return *c.EventName
}

// HasEvent reports whether the concert belongs to a named event.
func (c Concert) HasEvent() bool {
	return c.EventName != nil && *c.EventName != ""
}

// BandInfo groups the concerts of one band found on an image.
type BandInfo struct {
	// BandName is the performer name as printed.
	BandName string `json:"band_name"`

	// Concerts are in the order the model returned them.
	Concerts []Concert `json:"concerts"`
}

// ConcertExtraction is the full output of one extraction call.
//
// It is built from a single model response, flattened once into rows and
// then dropped; nothing keeps a reference to it across images.
type ConcertExtraction struct {
	Bands []BandInfo `json:"bands"`
}

// ConcertCount returns the number of (band, concert) pairs, which is the
// number of rows Rows produces.
func (e *ConcertExtraction) ConcertCount() int {
	if e == nil {
		return 0
	}
	n := 0
	for _, band := range e.Bands {
		n += len(band.Concerts)
	}
	return n
}

// Empty reports whether the extraction holds no concerts at all.
func (e *ConcertExtraction) Empty() bool {
	return e.ConcertCount() == 0
}

// StringPtr returns a pointer to s. Handy for building EventName values.
func StringPtr(s string) *string {
	return &s
}
