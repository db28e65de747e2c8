// Package ffmpeg wraps FFmpeg for stream-copy remuxing of local DASH
// manifests.
//
// The client runs FFmpeg from the manifest's directory so relative segment
// references resolve, streams its output line by line, and keeps the tail of
// that output so failures carry diagnostics. Commands run through an injectable
// Executor so tests can exercise argument construction without FFmpeg.
package ffmpeg
