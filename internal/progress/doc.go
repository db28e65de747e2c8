// Package progress renders download progress as terminal status lines and
// adapts go-ytdlp progress updates into the package's Event type.
package progress
