package bootstrap

import (
	"fmt"
	"strings"
)

// ManifestEntry is one default the normalizer seeds on first run
type ManifestEntry struct {
	File    string
	Group   string
	Key     string
	Default string
}

// String formats the entry as a manifest line: file group key default
func (e ManifestEntry) String() string {
	return fmt.Sprintf("%s %s %s %s", e.File, e.Group, e.Key, e.Default)
}

// DefaultManifest lists the keys resolved into startupconfig. Empty defaults are
// written as '' so every line keeps four fields. The file carries no version
// header since the normalizer reads every line as an entry; it is rewritten from
// this list on every start instead.
var DefaultManifest = []ManifestEntry{
	{File: "kcminputrc", Group: "Mouse", Key: "cursorTheme", Default: "'breeze_cursors'"},
	{File: "kcminputrc", Group: "Mouse", Key: "cursorSize", Default: "''"},
	{File: "ksplashrc", Group: "KSplash", Key: "Theme", Default: "Breeze"},
	{File: "ksplashrc", Group: "KSplash", Key: "Engine", Default: "KSplashQML"},
	{File: "kdeglobals", Group: "KScreen", Key: "ScaleFactor", Default: "''"},
	{File: "kdeglobals", Group: "KScreen", Key: "ScreenScaleFactors", Default: "''"},
	{File: "kcmfonts", Group: "General", Key: "forceFontDPI", Default: "0"},
}

// RenderManifest renders entries in the startupconfigkeys format
func RenderManifest(entries []ManifestEntry) []byte {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(entry.String())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// EnvName returns the variable name the normalizer exports for an entry, e.g.
// kcminputrc_mouse_cursortheme.
func (e ManifestEntry) EnvName() string {
	return strings.ToLower(e.File + "_" + e.Group + "_" + e.Key)
}
