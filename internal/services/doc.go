// Package services defines shared utilities consumed by the conversion
// dispatcher and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and the chosen conversion
//     strategy for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent exit codes and user guidance.
//   - Subpackages wrapping the external tools (yt-dlp, FFmpeg) behind
//     small interfaces so the dispatcher can be tested without them.
package services
