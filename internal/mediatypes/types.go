package mediatypes

import (
	"path/filepath"
	"strings"
)

// VideoMimeTypes maps recognized video container extensions to the MIME type
// served to clients. Containers and codecs are not validated; the table only
// reflects what browsers will attempt to play. Matroska is deliberately
// served as video/webm instead of video/x-matroska because browsers refuse
// the native type even though they can usually play the stream.
var VideoMimeTypes = map[string]string{
	".mp4": "video/mp4",
	".mkv": "video/webm",
}

// SubtitleExtensions are the sidecar subtitle formats the synchronizer
// understands. WebVTT is the playable target; SubRip gets converted.
var SubtitleExtensions = map[string]bool{
	".srt": true,
	".vtt": true,
}

// IsVideoFile reports whether the file name has a recognized video
// container extension.
func IsVideoFile(name string) bool {
	_, ok := VideoMimeTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// GetMimeType returns the MIME type for a video file name, or
// "application/octet-stream" if the extension is not recognized.
func GetMimeType(name string) string {
	if mime, ok := VideoMimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsSubtitleFile reports whether the file name has a recognized subtitle
// extension.
func IsSubtitleFile(name string) bool {
	return SubtitleExtensions[strings.ToLower(filepath.Ext(name))]
}

// BaseName returns the file name stripped of its extension.
func BaseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
