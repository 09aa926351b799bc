// Package collection stores saved requests, folders and environments in a
// YAML workspace file and turns saved requests into sendable ones.
package collection
