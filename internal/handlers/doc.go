// Package handlers implements the HTTP API: catalog listing and info,
// range-aware video streaming, subtitle and thumbnail artifacts, crawl
// triggering and health checks.
package handlers
