//go:build windows

package preflight

import (
	"fmt"
	"os"
)

// CheckDirectoryAccess verifies that the directory exists and that new files
// can be created in it. Windows has no access(2); a probe file is created and
// removed instead.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	probe, err := os.CreateTemp(path, ".mpd2mp4-probe-*")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", path, err)}
	}
	probe.Close()
	_ = os.Remove(probe.Name())
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (write ok)", path)}
}
