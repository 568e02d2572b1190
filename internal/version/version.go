// Package version reports the zkgen build.
package version

import (
	"strings"

	"github.com/carlmjohnson/versioninfo"
)

// String is the human-readable build description.
func String() string {
	var b strings.Builder
	b.WriteString("zkgen ")
	b.WriteString(versioninfo.Short())
	if !versioninfo.LastCommit.IsZero() {
		b.WriteString(" (")
		b.WriteString(versioninfo.LastCommit.UTC().Format("2006-01-02"))
		b.WriteString(")")
	}
	return b.String()
}

// Module returns the module version generated code should require: the
// release tag when zkgen was installed from one, else fallback.
func Module(fallback string) string {
	return moduleVersion(versioninfo.Version, fallback)
}

func moduleVersion(v, fallback string) string {
	if strings.HasPrefix(v, "v") && !strings.Contains(v, "+dirty") {
		return v
	}
	return fallback
}
