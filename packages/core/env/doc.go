// Package env handles variables and placeholder resolution for hitpost.
//
// Placeholders use the {{name}} syntax. Names resolve against global
// variables layered under the active environment, {{$NAME}} reads the
// process environment and {{fn(args)}} calls a builtin function.
package env
