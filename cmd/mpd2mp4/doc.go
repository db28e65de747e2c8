// Package main hosts the mpd2mp4 CLI entrypoint and command graph.
//
// The default command prompts for a manifest URL or path and an output name,
// resolves FFmpeg and yt-dlp once, and hands the request to the converter.
// Subcommands report external tool availability, scaffold and validate the
// configuration file, send a test notification, and show the log file.
package main
