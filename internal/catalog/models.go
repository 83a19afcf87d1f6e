package catalog

// VideoRecord is the persisted metadata for one indexed video file.
//
// ID is assigned once at creation and never changes. FileName is the unique
// key the crawler uses to detect already-known videos. FileSize and Subtitles
// are the only fields the crawler mutates after creation; FriendlyName,
// Description and Tags are user-editable and only ever initialized here.
type VideoRecord struct {
	ID           string   `json:"id"`
	SourcePath   string   `json:"sourcePath"`
	FileName     string   `json:"fileName"`
	BaseName     string   `json:"baseName"`
	FriendlyName string   `json:"friendlyName"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	MimeType     string   `json:"mimeType"`
	FileSize     int64    `json:"fileSize"`
	Subtitles    []string `json:"subtitles"`
}

// HasSubtitle reports whether a playable subtitle artifact exists for the
// given language code. Codes are opaque tokens; no normalization is applied.
func (v *VideoRecord) HasSubtitle(lang string) bool {
	for _, l := range v.Subtitles {
		if l == lang {
			return true
		}
	}
	return false
}
