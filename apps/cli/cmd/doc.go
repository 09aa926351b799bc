// Package cmd implements the hitpost CLI commands using Cobra.
//
// Available commands:
//   - send: Send an ad hoc or saved request, check it and print the response
//   - form: Decode urlencoded or line based form data
//   - code: Render a request as a curl, Go or Python snippet
//   - import: Convert curl commands or Insomnia exports into saved requests
//   - history: Browse and prune recorded responses
//   - bench: Send one request repeatedly and report latency
//   - invoke: Run host commands as JSON over stdin and stdout
//   - serve: Expose the host commands over HTTP
//   - init, list, validate: Manage the collection file
//   - version: Show hitpost version information
//
// Flags fall back to HITPOST_* environment variables, then to the config
// file, then to built in defaults.
package cmd
