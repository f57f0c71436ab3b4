// Package sink stores extracted concerts.
//
// Two sinks are provided:
//
//   - CSV: the primary output, one row per concert per band
//   - ICal: an optional calendar export for concerts with a readable date
//
// # CSV
//
// The CSV file is created with its header once and then only appended to:
//
//	out := sink.NewCSV("concerts.csv")
//	if _, err := out.Initialize(); err != nil {
//	    log.Fatal(err)
//	}
//	n, err := out.Append("poster.jpg", extraction)
//
// Rows are never updated or deduplicated. Appending the same extraction
// twice produces the rows twice.
//
// # Calendar
//
// ICal rewrites the whole .ics file on each Append and keeps the events
// already in it. Dates are free-form poster text, so ParseDate is a best
// effort and concerts it cannot read are left out of the calendar (they
// are still in the CSV).
package sink
