//go:build linux

package kernel

import (
	"bytes"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	version     Version
	versionErr  error
	versionOnce sync.Once
)

// Get
// returns the running kernel version, read once from uname(2).
func Get() (Version, error) {
	versionOnce.Do(func() {
		uts := unix.Utsname{}
		if err := unix.Uname(&uts); err != nil {
			versionErr = err
			return
		}
		end := bytes.IndexByte(uts.Release[:], 0)
		if end < 0 {
			end = len(uts.Release)
		}
		version, versionErr = Parse(string(uts.Release[:end]))
	})
	return version, versionErr
}
