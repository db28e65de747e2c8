// Package preflight provides filesystem readiness checks.
//
// These checks run in two contexts:
//   - The converter calls CheckOutputTarget before starting a download or
//     remux so an unwritable destination fails fast instead of after the
//     transfer.
//   - The CLI "mpd2mp4 deps" command uses RunAll to display directory health
//     next to the binary table.
package preflight
