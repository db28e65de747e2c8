// Package downloader drives yt-dlp through github.com/lrstanley/go-ytdlp to
// fetch remote DASH manifests and merge the selected representations into a
// single container file.
package downloader
