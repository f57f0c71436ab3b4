// Package model defines the core data structures used throughout
// concert-scanner.
//
// # ConcertExtraction
//
// ConcertExtraction is what one model call returns for one image: a list of
// bands, each with the concerts printed for it.
//
//	ex := &model.ConcertExtraction{Bands: []model.BandInfo{{
//	    BandName: "The Slow Readers Club",
//	    Concerts: []model.Concert{{Venue: "Albert Hall", Location: "Manchester", Date: "12 Oct"}},
//	}}}
//
// # Row
//
// Rows flattens an extraction into CSV rows sharing one source name and
// one timestamp:
//
//	for _, row := range ex.Rows("poster.jpg", time.Now()) {
//	    writer.Write(row.Record())
//	}
package model
