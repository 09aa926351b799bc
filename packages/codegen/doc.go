// Package codegen renders a request as a code snippet in another tool or
// language.
package codegen
