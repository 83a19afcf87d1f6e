// Package thumbnails derives one cached preview image per video by invoking
// an external frame-extraction tool through the FrameExtractor interface.
package thumbnails
