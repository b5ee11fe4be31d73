// Package client talks to the blog HTTP API on behalf of the command-line
// client.
//
// HTTPClient exposes one typed method per API operation. Authentication is
// carried by a session.Session; a single http.RoundTripper attaches the
// bearer token to every request and, when the server answers 401, clears
// the session and invokes the OnUnauthorized callback, so call sites never
// handle expiry themselves.
//
// # Error Handling
//
// Failures are reported as ErrUnauthorized, ErrNotFound or ErrUnavailable,
// which callers match with errors.Is, or as an *APIError carrying the
// server's code and message. APIError unwraps to the matching sentinel from
// the common package where one exists.
package client
