package fetch

import "fmt"

// heights recognized as quality presets. Anything else falls back to 1080p.
var qualityHeights = map[string]int{
	"2160p": 2160,
	"1440p": 1440,
	"1080p": 1080,
	"720p":  720,
	"480p":  480,
}

// FormatFor maps a quality preset to a yt-dlp format selector. "best" picks
// the best available streams with no height cap; presets cap the video height
// and prefer mp4/m4a so the merge step stays cheap.
func FormatFor(quality string) string {
	if quality == "best" {
		return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo+bestaudio/best"
	}

	height, ok := qualityHeights[quality]
	if !ok {
		height = 1080
	}
	return fmt.Sprintf(
		"bestvideo[height<=%d][ext=mp4]+bestaudio[ext=m4a]/bestvideo[height<=%d]+bestaudio/best[height<=%d]/best",
		height, height, height,
	)
}
