// Package ffprobe inspects finished output files with the ffprobe binary that
// ships alongside FFmpeg.
package ffprobe
