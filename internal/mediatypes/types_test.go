package mediatypes

import "testing"

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"movie.mp4", true},
		{"movie.mkv", true},
		{"MOVIE.MP4", true},
		{"movie.avi", false},
		{"movie.srt", false},
		{"movie", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsVideoFile(tt.name); got != tt.want {
			t.Errorf("IsVideoFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"movie.mp4", "video/mp4"},
		// Matroska served as webm so browsers will play it.
		{"movie.mkv", "video/webm"},
		{"Movie.MKV", "video/webm"},
		{"movie.avi", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := GetMimeType(tt.name); got != tt.want {
			t.Errorf("GetMimeType(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsSubtitleFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"movie.en.srt", true},
		{"movie.en.vtt", true},
		{"movie.en.VTT", true},
		{"movie.mp4", false},
		{"movie.sub", false},
	}

	for _, tt := range tests {
		if got := IsSubtitleFile(tt.name); got != tt.want {
			t.Errorf("IsSubtitleFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"movie.mp4", "movie"},
		{"movie.en.srt", "movie.en"},
		{"movie", "movie"},
		{"My Holiday (2024).mkv", "My Holiday (2024)"},
	}

	for _, tt := range tests {
		if got := BaseName(tt.name); got != tt.want {
			t.Errorf("BaseName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
