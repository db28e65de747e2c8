// Package logs reads the JSON log file written when logging.file is set.
//
// Tail returns the last lines with bounded memory; Follow polls for appended
// lines until its context ends, restarting from the top if the file is
// truncated.
package logs
