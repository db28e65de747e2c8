// Package notifications delivers conversion results to ntfy.
//
// The topic URL comes from the [notifications] section of config.toml. When
// no topic is configured NewService returns a no-op implementation, so callers
// can notify unconditionally.
package notifications
