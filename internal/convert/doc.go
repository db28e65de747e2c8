// Package convert turns a classified source into a single container file.
//
// The Dispatcher picks a strategy per request. Remote manifests are handed to
// yt-dlp, local manifests are stream-copied by FFmpeg, and local manifests
// that only reference remote media are redirected to yt-dlp using a URL found
// inside them. Every strategy writes to a hidden temp file next to the
// destination; the file is renamed into place only after the tool succeeds, and
// an advisory lock keeps two runs from writing the same output at once.
package convert
