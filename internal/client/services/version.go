package services

import (
	"strings"

	"github.com/hashicorp/go-version"
)

// parseVersion reads panel version markers such as "V3.01.2". The leading
// "V" is not part of the version syntax and is dropped first.
func parseVersion(v string) (*version.Version, error) {
	v = strings.TrimLeft(strings.TrimSpace(v), "vV")
	return version.NewVersion(v)
}

// below reports whether v is known to be older than minimum. Missing or
// unparseable markers are unknown and never count as below.
func below(v, minimum string) bool {
	have, err := parseVersion(v)
	if err != nil {
		return false
	}
	want, err := parseVersion(minimum)
	if err != nil {
		return false
	}
	return have.LessThan(want)
}
