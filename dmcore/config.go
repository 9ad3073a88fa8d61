// SPDX-License-Identifier: Apache-2.0

package dmcore

import (
	"os"

	"gopkg.in/ini.v1"
)

// fileConfig is the optional on-disk override loaded at root init,
// following the teacher's config.go pattern of loading an INI-format
// file (there, a /sys/dev uevent file) and tolerating its absence.
type fileConfig struct {
	PreRelocOnly  bool
	ExtendedPaths []string
}

// loadFileConfig loads path if it exists. A missing file is not an
// error -- built-in defaults apply, matching GetHostPath's handling of
// a missing /sys/dev entry in the teacher's device/config package.
func loadFileConfig(path string) (*fileConfig, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}

	sec := cfg.Section("scan")
	fc := &fileConfig{
		PreRelocOnly: sec.Key("pre_reloc_only").MustBool(false),
	}
	if raw := sec.Key("extended_paths").String(); raw != "" {
		fc.ExtendedPaths = sec.Key("extended_paths").Strings(",")
	}
	return fc, nil
}
