// Package streaming opens bounded byte streams over catalog source files
// and copies them to HTTP clients with timeout protection.
package streaming
