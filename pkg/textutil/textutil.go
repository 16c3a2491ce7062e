package textutil

import (
	"strings"
)

// NormalizeName lowercases a name and drops all whitespace so "Project 2",
// "project2" and " PROJECT\t2 " compare equal.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}
