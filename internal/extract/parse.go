package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/handiism/concert-scanner/internal/model"
)

// fencePattern matches a reply wrapped in a Markdown code block.
var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\s*```$")

// Parse decodes a model reply into a ConcertExtraction.
//
// This method performs the following steps:
//  1. Strips a surrounding Markdown code fence, if any
//  2. Deserializes the JSON object
//  3. Checks that every required key is present
//  4. Trims values and turns empty event names into nil
//
// Every failure wraps ErrSchema.
//
// Example:
//
//	ex, err := Parse(`{"bands":[{"band_name":"Idles","concerts":[]}]}`)
func Parse(reply string) (*model.ConcertExtraction, error) {
	text := stripFence(reply)
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrSchema)
	}

	var je jsonExtraction
	if err := json.Unmarshal([]byte(text), &je); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	ex, err := je.toExtraction()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return ex, nil
}

// stripFence removes a ```json ... ``` wrapper some models add even when
// asked for bare JSON.
func stripFence(reply string) string {
	text := strings.TrimSpace(reply)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}
