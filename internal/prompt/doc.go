// Package prompt asks the user for the conversion inputs.
//
// New picks an interactive bubbletea text input when both ends are terminals
// and falls back to plain line reads otherwise, which keeps piped input and
// tests working.
package prompt
