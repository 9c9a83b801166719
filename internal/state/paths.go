// Package state resolves the on-disk locations draftpad uses for its log,
// preference database, theme, and update bookkeeping.
package state

import (
	"os"
	"path/filepath"
)

type Paths struct {
	HomeDir           string
	DataDir           string
	LogFile           string
	PrefsFile         string
	ThemeFile         string
	LatestVersionFile string
}

var defaultPaths *Paths

func ensureDefaultPaths() {
	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}

		dataDir := filepath.Join(homeDir, ".local", "share", "draftpad")
		defaultPaths = &Paths{
			HomeDir:           homeDir,
			DataDir:           dataDir,
			LogFile:           filepath.Join(dataDir, "draftpad.log"),
			PrefsFile:         filepath.Join(dataDir, "prefs.db"),
			ThemeFile:         filepath.Join(dataDir, "theme.yaml"),
			LatestVersionFile: filepath.Join(dataDir, "latest_version.txt"),
		}

		err = os.MkdirAll(dataDir, 0755)
		if err != nil {
			panic(err)
		}
	}
}

func HomeDir() string {
	ensureDefaultPaths()
	return defaultPaths.HomeDir
}

func DataDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

func LogFile() string {
	ensureDefaultPaths()
	return defaultPaths.LogFile
}

func PrefsFile() string {
	ensureDefaultPaths()
	return defaultPaths.PrefsFile
}

func ThemeFile() string {
	ensureDefaultPaths()
	return defaultPaths.ThemeFile
}

func LatestVersionFile() string {
	ensureDefaultPaths()
	return defaultPaths.LatestVersionFile
}
