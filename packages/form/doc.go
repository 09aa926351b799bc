// Package form parses the textual key/value encodings hitpost accepts as form
// bodies.
//
// Two encodings are supported:
//   - urlencoded: "a=1&b=2", percent-decoded
//   - multipart: one "key=value" per line, trimmed
//
// The multipart encoding is a line-based shorthand, not MIME parsing. Parsing
// is lenient: pairs or lines without '=' are dropped, never reported.
package form
