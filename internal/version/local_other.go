//go:build !windows

package version

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// manifestVersion is the minimal shape needed to read the version
// field out of a slot's manifest.json without pulling in the manifest
// package (which requires a public key and performs full verification).
type manifestVersion struct {
	Version string `json:"version"`
}

// Local reads the four-part version out of slotDir's manifest.json.
// There is no portable non-Windows equivalent of a PE VERSIONINFO
// resource, and the manifest already carries a version field for
// exactly this purpose (spec §3); this read is for version comparison
// only; signature and hash verification still gate whether the slot is
// ever launched (spec §4.7 step 3). If absent or unparsable, returns
// UnknownVersion.
func Local(slotDir string) string {
	data, err := os.ReadFile(filepath.Join(slotDir, "manifest.json"))
	if err != nil {
		return UnknownVersion
	}
	var mv manifestVersion
	if err := json.Unmarshal(data, &mv); err != nil {
		return UnknownVersion
	}
	if _, ok := ParseTuple(mv.Version); !ok {
		return UnknownVersion
	}
	return mv.Version
}
