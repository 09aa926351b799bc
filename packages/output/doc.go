// Package output renders responses, request errors, assertion results and
// history listings for the terminal.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: The response or error in its wire shape
//
// Console output is written as it arrives. The JSON formatter accumulates
// and writes a single document on Flush.
package output
