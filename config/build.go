// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"runtime/debug"
	"strings"
)

// BuildVersion is the latest tagged release of i18nbundle.
const BuildVersion string = "v0.3.0"

const shortRevisionLength = 8

type buildInfo struct {
	VcsRevision string
	VcsTime     string
	VcsModified bool
	GoVersion   string
}

// Revision describes the commit the binary was built from, e.g. 2024-05-01-0123abcd+dirty.
func (b *buildInfo) Revision() string {
	if b.VcsRevision == "" {
		return "unknown"
	}

	rev := b.VcsRevision
	if len(rev) > shortRevisionLength {
		rev = rev[:shortRevisionLength]
	}

	s := rev
	if date, _, _ := strings.Cut(b.VcsTime, "T"); date != "" {
		s = date + "-" + rev
	}

	if b.VcsModified {
		s += "+dirty"
	}

	return s
}

func (b *buildInfo) load() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	b.GoVersion = info.GoVersion

	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			b.VcsRevision = kv.Value
		case "vcs.time":
			b.VcsTime = kv.Value
		case "vcs.modified":
			b.VcsModified = kv.Value == "true"
		}
	}
}

// Version returns the release and revision of the running binary.
func Version() (release, revision, goVersion string) {
	var b buildInfo

	b.load()

	return BuildVersion, b.Revision(), b.GoVersion
}
