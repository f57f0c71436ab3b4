package pipeline

import (
	"errors"
	"fmt"

	"github.com/handiism/concert-scanner/internal/extract"
)

// Kind classifies the outcome of processing one file.
type Kind int

const (
	KindOK Kind = iota
	KindSkipped
	KindRead
	KindAuth
	KindTransport
	KindSchema
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindSkipped:
		return "skipped"
	case KindRead:
		return "read failure"
	case KindAuth:
		return "auth failure"
	case KindTransport:
		return "transport failure"
	case KindSchema:
		return "schema failure"
	case KindSink:
		return "sink failure"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Failed reports whether the kind is one of the failure kinds.
func (k Kind) Failed() bool {
	return k != KindOK && k != KindSkipped
}

// Result is the outcome of processing one file.
type Result struct {
	Path string
	Kind Kind
	Rows int
	Err  error
}

// extractKind maps an extraction error to its result kind.
func extractKind(err error) Kind {
	switch {
	case errors.Is(err, extract.ErrAuth):
		return KindAuth
	case errors.Is(err, extract.ErrSchema):
		return KindSchema
	default:
		return KindTransport
	}
}
