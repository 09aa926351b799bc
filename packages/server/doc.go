// Package server exposes the request executor and the form codec to a host
// process, either as named commands over JSON (see Commands) or as an HTTP
// bridge built on chi.
//
// The two commands are make_http_request, taking {"request": WireRequest},
// and parse_form_data, taking {"formStr": string, "formType": string}.
package server
