// Package video knows how Mux playback IDs turn into stream URLs and how
// durations are shown.
package video

import (
	"fmt"
	"regexp"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

const streamBaseURL = "https://stream.mux.com"

var playbackIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// PlaybackURL returns the public HLS URL. Signed playback is not enabled.
func PlaybackURL(playbackID string) string {
	return fmt.Sprintf("%s/%s.m3u8", streamBaseURL, playbackID)
}

func IsValidPlaybackID(playbackID string) bool {
	return playbackIDPattern.MatchString(playbackID)
}

// FormatDuration renders seconds as "1시간 2분 3초", or "2분 3초" under an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d시간 %d분 %d초", hours, minutes, secs)
	}
	return fmt.Sprintf("%d분 %d초", minutes, secs)
}

// Decorate fills the derived playback fields of each video in place.
func Decorate(videos []models.CourseVideo) []models.CourseVideo {
	for i := range videos {
		if videos[i].PlaybackID != nil && *videos[i].PlaybackID != "" {
			videos[i].PlaybackURL = PlaybackURL(*videos[i].PlaybackID)
		}
		if videos[i].Duration != nil {
			videos[i].DurationLabel = FormatDuration(*videos[i].Duration)
		}
	}
	return videos
}
