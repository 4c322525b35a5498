/*
 * kbhookd - macOS keyboard hotkey dispatcher
 * License: MIT
 */
package version

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

var (
	// Essas variáveis serão preenchidas durante a compilação via ldflags
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// GetBuildInfoImpl é a implementação injetável para GetBuildInfo (pode ser mocked em testes)
var GetBuildInfoImpl = func() (string, string, string) {
	version := Version
	commitHash := CommitHash
	buildDate := BuildDate

	if version == "dev" || version == "unknown" ||
		commitHash == "unknown" || buildDate == "unknown" {

		if info, ok := debug.ReadBuildInfo(); ok {
			if (version == "dev" || version == "unknown") && info.Main.Version != "" && info.Main.Version != "(devel)" {
				version = strings.TrimPrefix(info.Main.Version, "v")
			}
			if (commitHash == "unknown" || len(commitHash) < 7) && info.Main.Version != "" {
				parts := strings.Split(info.Main.Version, "-")
				if len(parts) >= 3 {
					possibleCommit := parts[len(parts)-1]
					if len(possibleCommit) >= 7 {
						commitHash = possibleCommit
					}
				}
			}
			if buildDate == "unknown" {
				for _, setting := range info.Settings {
					if setting.Key == "vcs.time" {
						if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
							buildDate = t.Format("2006-01-02 15:04:05")
						} else {
							buildDate = setting.Value
						}
					}
				}
			}
		}
	}
	if buildDate == "unknown" {
		if execPath, err := os.Executable(); err == nil {
			if info, err := os.Stat(execPath); err == nil {
				buildDate = fmt.Sprintf("%s (approximated from binary mtime)", info.ModTime().Format("2006-01-02 15:04:05"))
			}
		}
	}
	return version, commitHash, buildDate
}

// GetBuildInfo reports the running binary's version, commit hash, and
// build date, falling back to Go's embedded VCS build info when ldflags
// weren't set (e.g. `go install`).
func GetBuildInfo() (string, string, string) {
	return GetBuildInfoImpl()
}

// Info is the structured form of the build identity returned by
// GetCurrentVersion.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
}

// GetCurrentVersion returns the current build's identity.
func GetCurrentVersion() Info {
	v, c, d := GetBuildInfo()
	return Info{Version: v, CommitHash: c, BuildDate: d}
}
