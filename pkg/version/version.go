// Package version exposes build metadata for the archgate binary.
package version

import "runtime/debug"

// Build metadata, overridden at link time via -ldflags. Binaries built
// without linker flags are backfilled from the embedded module info.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// devVersion is the placeholder the Go toolchain reports for uninstalled builds.
const devVersion = "(devel)"

// InitBinaryVersion backfills Version, Commit, and Date from the module build
// info when the binary was built without linker flags.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != devVersion {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "none" && setting.Value != "" {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == "unknown" && setting.Value != "" {
				Date = setting.Value
			}
		}
	}
}
