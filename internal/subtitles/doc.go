// Package subtitles discovers sidecar subtitle files, converts SubRip
// tracks to WebVTT and maintains the per-video artifact cache.
package subtitles
