package progress

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lrstanley/go-ytdlp"
)

// FromUpdate converts a yt-dlp progress update into an Event. The second
// return value is false for updates that have no terminal representation
// (post-processing).
func FromUpdate(update ytdlp.ProgressUpdate, now time.Time) (Event, bool) {
	switch update.Status {
	case ytdlp.ProgressStatusFinished:
		return Event{Status: StatusFinished, Fraction: 1}, true
	case ytdlp.ProgressStatusError:
		return Event{Status: StatusError}, true
	case ytdlp.ProgressStatusStarting, ytdlp.ProgressStatusDownloading:
	default:
		return Event{}, false
	}

	event := Event{Status: StatusDownloading}
	if update.TotalBytes > 0 {
		event.Fraction = clamp(float64(update.DownloadedBytes) / float64(update.TotalBytes))
	}
	event.Speed = formatSpeed(float64(update.DownloadedBytes), update.Started, now)
	if eta := update.ETA(); eta > 0 {
		event.ETA = eta.Round(time.Second).String()
	}
	return event, true
}

// Hook returns a go-ytdlp progress callback that forwards to sink.
func Hook(sink Sink) func(ytdlp.ProgressUpdate) {
	if sink == nil {
		sink = Discard
	}
	return func(update ytdlp.ProgressUpdate) {
		if event, ok := FromUpdate(update, time.Now()); ok {
			sink.OnEvent(event)
		}
	}
}

func formatSpeed(downloaded float64, started, now time.Time) string {
	if started.IsZero() || downloaded <= 0 {
		return ""
	}
	elapsed := now.Sub(started).Seconds()
	if elapsed <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(downloaded/elapsed)) + "/s"
}
