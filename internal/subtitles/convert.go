package subtitles

import "bytes"

var (
	vttHeader       = []byte("WEBVTT\n\n")
	cueTimingMarker = []byte("-->")
)

// ToVTT converts SubRip subtitle data to WebVTT. It prepends the WEBVTT
// header and rewrites comma decimal separators to periods on cue-timing
// lines; every other line passes through unchanged, original line
// terminators included.
func ToVTT(input []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(input) + len(vttHeader))
	out.Write(vttHeader)

	rest := input
	for len(rest) > 0 {
		line := rest
		term := []byte(nil)

		if idx := bytes.IndexByte(rest, '\n'); idx >= 0 {
			line = rest[:idx]
			term = rest[idx : idx+1]
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
				term = rest[idx-1 : idx+1]
			}
			rest = rest[idx+1:]
		} else {
			rest = nil
		}

		if bytes.Contains(line, cueTimingMarker) {
			line = bytes.ReplaceAll(line, []byte(","), []byte("."))
		}
		out.Write(line)
		out.Write(term)
	}

	return out.Bytes()
}
