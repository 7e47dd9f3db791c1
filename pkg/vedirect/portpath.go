// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// Port-path grammars from §6. POSIX paths are under /dev, or a vmodemN file
// under the user's home directory (used by the test simulator's virtual
// serial pair); Windows paths are COMn.
var (
	posixDevPattern = regexp.MustCompile(`^/dev/(ttyUSB|ttyACM|vmodem|COM)[0-9]{1,3}$`)
	posixHomePath   = regexp.MustCompile(`^vmodem[0-9]{1,3}$`)
	windowsPattern  = regexp.MustCompile(`^COM[0-9]{1,3}$`)
	vmodemPattern   = regexp.MustCompile(`^vmodem[0-9]{1,3}$`)
)

// ValidPortPath reports whether path matches the platform-specific port
// syntax documented in §6, accepting either grammar so a config built on
// one platform can still be validated (and tested) on another.
func ValidPortPath(path string) bool {
	if windowsPattern.MatchString(path) {
		return true
	}
	if posixDevPattern.MatchString(path) {
		return true
	}
	if strings.HasPrefix(path, "~/") && posixHomePath.MatchString(strings.TrimPrefix(path, "~/")) {
		return true
	}
	return false
}

// ExpandHomePortPath resolves a leading "~/" in a port path against the
// current user's home directory, leaving absolute and Windows paths
// untouched.
func ExpandHomePortPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/"))
}

// VmodemCandidates enumerates vmodemN files directly under the user's home
// directory (§4.5's virtual-modem discovery), used in addition to the
// host's OS-reported serial devices.
func VmodemCandidates() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	entries, err := os.ReadDir(home)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if vmodemPattern.MatchString(e.Name()) {
			out = append(out, filepath.Join(home, e.Name()))
		}
	}
	return out
}

// runtimeIsWindows reports whether the host OS is Windows. ValidPortPath
// does not consult it: both grammars are accepted on every platform.
var runtimeIsWindows = func() bool { return runtime.GOOS == "windows" }
