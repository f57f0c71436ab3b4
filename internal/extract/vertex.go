package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/handiism/concert-scanner/internal/model"
)

// Vertex extracts concerts through the Vertex AI Gemini SDK.
//
// Authentication uses Application Default Credentials; only the project
// and location are configured here.
type Vertex struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewVertex connects to Vertex AI and configures the model for
// ConcertExtraction JSON output.
func NewVertex(ctx context.Context, project, location, modelName string) (*Vertex, error) {
	if project == "" {
		return nil, fmt.Errorf("%w: GCP_PROJECT_ID is not set", ErrAuth)
	}

	client, err := genai.NewClient(ctx, project, location)
	if err != nil {
		return nil, fmt.Errorf("vertex client: %w", err)
	}

	m := client.GenerativeModel(modelName)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(Instructions)}}
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = toGenaiSchema(ResponseSchema())

	return &Vertex{client: client, model: m}, nil
}

// Extract sends the image with the fixed instruction and parses the reply.
func (v *Vertex) Extract(ctx context.Context, data []byte, mediaType string) (*model.ConcertExtraction, error) {
	resp, err := v.model.GenerateContent(ctx,
		genai.Text(Prompt),
		genai.Blob{MIMEType: mediaType, Data: data},
	)
	if err != nil {
		return nil, classifyRPC(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no candidates", ErrSchema)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return Parse(text.String())
}

// Close releases the underlying gRPC connection.
func (v *Vertex) Close() error {
	return v.client.Close()
}

// classifyRPC wraps an SDK error with the matching failure class. Blocked
// prompts and candidates arrive as *genai.BlockedError.
func classifyRPC(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Nullable:    s.Nullable,
		Items:       toGenaiSchema(s.Items),
		Required:    s.Required,
	}
	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeArray:
		out.Type = genai.TypeArray
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}
