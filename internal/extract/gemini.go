package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	httpclient "github.com/handiism/concert-scanner/internal/http"
	"github.com/handiism/concert-scanner/internal/model"
)

// Gemini REST request/response types.

type gInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type gPart struct {
	Text       string       `json:"text,omitempty"`
	InlineData *gInlineData `json:"inline_data,omitempty"`
}

type gContent struct {
	Role  string  `json:"role,omitempty"`
	Parts []gPart `json:"parts"`
}

type gGenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *Schema `json:"responseSchema"`
}

type gRequest struct {
	SystemInstruction *gContent         `json:"system_instruction,omitempty"`
	Contents          []gContent        `json:"contents"`
	GenerationConfig  gGenerationConfig `json:"generationConfig"`
}

type gCandidate struct {
	Content      gContent `json:"content"`
	FinishReason string   `json:"finishReason"`
}

type gResponse struct {
	Candidates     []gCandidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Gemini extracts concerts with the Gemini generateContent REST API.
//
// Example usage:
//
//	g := NewGemini(http.NewClient(0), "https://generativelanguage.googleapis.com/v1beta", "gemini-2.5-flash", key)
//	ex, err := g.Extract(ctx, imageBytes, "image/png")
type Gemini struct {
	client   *httpclient.Client
	endpoint string
	model    string
	apiKey   string
}

// NewGemini creates a Gemini extractor. endpoint is the API base URL
// without the /models path.
func NewGemini(client *httpclient.Client, endpoint, model, apiKey string) *Gemini {
	return &Gemini{
		client:   client,
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
	}
}

// Extract sends the image with the fixed instruction and parses the reply.
func (g *Gemini) Extract(ctx context.Context, data []byte, mediaType string) (*model.ConcertExtraction, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrAuth)
	}

	req := gRequest{
		SystemInstruction: &gContent{Parts: []gPart{{Text: Instructions}}},
		Contents: []gContent{{
			Role: "user",
			Parts: []gPart{
				{Text: Prompt},
				{InlineData: &gInlineData{MimeType: mediaType, Data: base64.StdEncoding.EncodeToString(data)}},
			},
		}},
		GenerationConfig: gGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   ResponseSchema(),
		},
	}

	var resp gResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)
	if err := g.client.PostJSON(ctx, url, map[string]string{"x-goog-api-key": g.apiKey}, req, &resp); err != nil {
		return nil, classifyHTTP(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", ErrSchema, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrSchema)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("%w: empty candidate (finish reason %s)", ErrSchema, resp.Candidates[0].FinishReason)
	}

	return Parse(text.String())
}

// classifyHTTP wraps a transport error with the matching failure class.
func classifyHTTP(err error) error {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrAuth, err)
		}
		// Gemini answers 400 "API key not valid" for bad keys.
		if se.Code == http.StatusBadRequest && strings.Contains(se.Body, "API_KEY_INVALID") {
			return fmt.Errorf("%w: %w", ErrAuth, err)
		}
	}
	if errors.Is(err, httpclient.ErrDecode) {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
