package console

import (
	"strings"

	"github.com/distribution/reference"
)

// minimalShell exists in every image the emulator is expected to run.
var minimalShell = []string{"/bin/sh"}

// ShellTable maps an image family (the last path component of the image
// name, e.g. "ubuntu" for docker.io/library/ubuntu:22.04) to the interactive
// command used for console sessions.
type ShellTable map[string][]string

// DefaultShells lists the families known to ship bash.
func DefaultShells() ShellTable {
	bash := []string{"/bin/bash"}
	return ShellTable{
		"ubuntu":      bash,
		"debian":      bash,
		"fedora":      bash,
		"centos":      bash,
		"rockylinux":  bash,
		"almalinux":   bash,
		"amazonlinux": bash,
		"archlinux":   bash,
	}
}

// For returns the command for the first image reference whose family is in
// the table, or the minimal shell.
func (t ShellTable) For(imageRefs ...string) []string {
	for _, ref := range imageRefs {
		if cmd, ok := t[imageFamily(ref)]; ok {
			return cmd
		}
	}
	return minimalShell
}

func imageFamily(ref string) string {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		// Image ids and malformed references carry no family.
		return ""
	}
	path := reference.Path(named)
	return path[strings.LastIndex(path, "/")+1:]
}
