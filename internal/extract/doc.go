// Package extract turns concert poster images into structured listings by
// calling a hosted vision model.
//
// The package handles three concerns:
//
//  1. Building the request: fixed instruction, image bytes, response schema
//  2. Talking to a backend (Gemini REST or Vertex AI)
//  3. Parsing and checking the JSON reply
//
// # Backends
//
//	ex, err := extract.New(ctx, settings, config.LoadCredentials())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if c, ok := ex.(io.Closer); ok {
//	    defer c.Close()
//	}
//	result, err := ex.Extract(ctx, imageBytes, "image/jpeg")
//
// # Errors
//
// Every failure wraps exactly one of ErrAuth, ErrTransport or ErrSchema:
//
//	switch {
//	case errors.Is(err, extract.ErrAuth):
//	    // check GEMINI_API_KEY
//	case errors.Is(err, extract.ErrSchema):
//	    // model answered with something else
//	}
//
// Unclear values come back as "Unknown" because the model is told to do so;
// nothing in this package fills them in.
package extract
