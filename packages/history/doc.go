// Package history keeps a SQLite log of request executions, successful or not.
package history
