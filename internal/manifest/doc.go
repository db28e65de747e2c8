// Package manifest inspects local DASH manifests for references to remote
// media. A local MPD whose segments live on a server cannot be remuxed from
// disk, so the converter hands the remote URL found here to the downloader
// instead.
package manifest
