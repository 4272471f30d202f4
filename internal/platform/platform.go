// Package platform identifies the host OS flavour where it changes how
// agentssh talks to the desktop (clipboard tools, file watching).
package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Platform is the detected host.
type Platform string

const (
	MacOS   Platform = "macos"
	Linux   Platform = "linux"
	WSL1    Platform = "wsl1"
	WSL2    Platform = "wsl2"
	Unknown Platform = "unknown"
)

var (
	detectOnce sync.Once
	detected   Platform
)

// Detect returns the current platform. The result is cached.
func Detect() Platform {
	detectOnce.Do(func() {
		detected = detect(runtime.GOOS, os.Getenv("WSL_DISTRO_NAME"), readFile("/proc/version"), exists)
	})
	return detected
}

func readFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(b)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func detect(goos, wslDistro, procVersion string, exists func(string) bool) Platform {
	switch goos {
	case "darwin":
		return MacOS
	case "linux":
	default:
		return Unknown
	}

	if wslDistro == "" && !strings.Contains(strings.ToLower(procVersion), "microsoft") {
		return Linux
	}
	switch {
	case strings.Contains(procVersion, "microsoft-standard"):
		return WSL2
	case strings.Contains(procVersion, "Microsoft"):
		return WSL1
	case exists("/run/WSL"), exists("/dev/vsock"):
		return WSL2
	}
	// WSL1 is the more limited of the two.
	return WSL1
}

// IsWSL reports whether we run under either WSL version.
func IsWSL() bool {
	p := Detect()
	return p == WSL1 || p == WSL2
}

// String returns a human-readable platform name.
func (p Platform) String() string {
	switch p {
	case MacOS:
		return "macOS"
	case Linux:
		return "Linux"
	case WSL1:
		return "WSL1"
	case WSL2:
		return "WSL2"
	}
	return "Unknown"
}

// FsnotifyWarning returns a warning when path sits on a filesystem where
// fsnotify events are unreliable (9p, NFS, CIFS, SSHFS), else "".
func FsnotifyWarning(path string) string {
	if runtime.GOOS != "linux" {
		return ""
	}
	return fsnotifyWarning(path, readFile("/proc/mounts"))
}

func fsnotifyWarning(path, mounts string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}

	// Longest mount point containing path wins.
	var mountPoint, fsType string
	for _, line := range strings.Split(mounts, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		mp := fields[1]
		within := abs == mp || strings.HasPrefix(abs, strings.TrimSuffix(mp, "/")+"/")
		if within && len(mp) > len(mountPoint) {
			mountPoint, fsType = mp, fields[2]
		}
	}

	switch {
	case fsType == "9p":
		return "config on a 9p mount (WSL Windows filesystem): edits made outside agentssh are not picked up"
	case fsType == "nfs" || fsType == "nfs4":
		return "config on an NFS mount: outside edits may not be picked up"
	case fsType == "cifs" || fsType == "smbfs":
		return "config on a CIFS/SMB mount: outside edits may not be picked up"
	case strings.HasPrefix(fsType, "fuse.sshfs"):
		return "config on an SSHFS mount: outside edits are not picked up"
	}
	return ""
}
