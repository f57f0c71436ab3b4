// Package http provides the HTTP client used to talk to hosted models.
//
// The Client in this package handles:
//   - User-Agent headers
//   - JSON request and response bodies
//   - Non-2xx answers as *StatusError, so callers can tell an
//     authentication failure from a server error
//
// # Basic Usage
//
//	client := http.NewClient(0) // no client-side timeout
//
//	var out Response
//	err := client.PostJSON(ctx, url, headers, req, &out)
package http
