// Package logging assembles the structured slog loggers used by mpd2mp4.
//
// It owns the console and JSON handlers, maps configured levels onto slog,
// optionally mirrors records into a JSON log file, and exposes context-aware
// helpers so conversion code tags log lines with the run identifier and
// chosen strategy. Logs go to stderr by default; stdout is left to prompts
// and progress output.
package logging
