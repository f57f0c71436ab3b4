package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/concert-scanner/internal/config"
	httpclient "github.com/handiism/concert-scanner/internal/http"
	"github.com/handiism/concert-scanner/internal/model"
)

// Failure classes. Backends wrap the underlying cause with one of these so
// callers can branch with errors.Is.
var (
	// ErrAuth means the service rejected or never received credentials.
	ErrAuth = errors.New("model authentication failed")

	// ErrTransport covers network errors and non-auth error statuses.
	ErrTransport = errors.New("model request failed")

	// ErrSchema means the reply was empty, blocked or did not match the
	// ConcertExtraction shape.
	ErrSchema = errors.New("model output does not match schema")
)

// Instructions is the system instruction sent with every image.
const Instructions = `Extract concert information from the image.
For each band visible, extract:
- The band name
- The venue(s) where they play
- The location of each venue
- The date of each concert
- The event/festival name (if it's part of a named event like a festival)
If any information is unclear or missing, use "Unknown" as the value.
Leave event_name as null if there's no specific event/festival name.`

// Prompt is the user turn that accompanies the image.
const Prompt = "Extract all concert information from this image."

// Extractor turns one image into a ConcertExtraction.
//
// Implementations make exactly one call per image: no retry, no backoff and
// no partial results. Errors wrap ErrAuth, ErrTransport or ErrSchema.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mediaType string) (*model.ConcertExtraction, error)
}

// New builds the extractor selected by settings.Provider.
//
// Backends that hold connections also implement io.Closer.
func New(ctx context.Context, settings *config.Settings, creds config.Credentials) (Extractor, error) {
	switch settings.Provider {
	case config.ProviderGemini:
		client := httpclient.NewClient(settings.RequestTimeoutDuration())
		return NewGemini(client, settings.GeminiEndpoint, settings.Model, creds.GeminiAPIKey), nil
	case config.ProviderVertex:
		return NewVertex(ctx, creds.GCPProject, settings.VertexLocation, settings.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q", settings.Provider)
	}
}
