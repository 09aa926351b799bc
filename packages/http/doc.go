// Package http turns an abstract request description into a real HTTP call
// and normalizes what comes back.
//
// It covers:
//   - Request assembly: method resolution, headers, five body encodings
//   - Content-type sniffing for binary bodies
//   - Response normalization: flattened headers, decoded body, pretty JSON
//   - A per-call transport built by an injectable factory
//   - Query params and auth helpers used by saved requests
//
// Every failure is reported as an *Error carrying the message shown to the
// user and, when a response had already arrived, its status.
package http
