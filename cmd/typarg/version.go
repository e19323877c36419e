package main

import (
	_ "embed"
	"fmt"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var release string

// Version reports the typarg release. A binary installed from a tagged module
// reports the tag. A source build reports the embedded release with a -dev
// suffix, followed by the short commit and a dirty marker when the toolchain
// recorded them.
func Version() string {
	info, _ := debug.ReadBuildInfo()
	return versionOf(strings.TrimSpace(release), info)
}

func versionOf(release string, info *debug.BuildInfo) string {
	if info == nil {
		return release
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	v := release + "-dev"
	if rev := buildSetting(info, "vcs.revision"); len(rev) >= 12 {
		v += "+" + rev[:12]
		if buildSetting(info, "vcs.modified") == "true" {
			v += ".dirty"
		}
	}
	return v
}

func buildSetting(info *debug.BuildInfo, key string) string {
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	p := newPrinter(a.stdout, formatText)
	_, err := fmt.Fprintf(a.stdout, "%s %s\n", p.name.Sprint("typarg"), Version())
	return err
}
