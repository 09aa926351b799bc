// Package assertions evaluates response checks given on the command line.
//
// An expression has the form "subject operator expected":
//   - status == 200
//   - header content-type contains json
//   - body.data.id exists
//   - body schema ./schema.json
//   - duration < 500
//
// Supported operators: ==, !=, >, >=, <, <=, contains, !contains,
// startsWith, endsWith, matches, exists, !exists, length, includes,
// !includes, in, !in, type, each, schema.
package assertions
