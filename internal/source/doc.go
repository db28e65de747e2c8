// Package source classifies conversion input as a remote manifest URL or a
// local manifest file.
package source
