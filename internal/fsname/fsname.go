package fsname

import (
	"regexp"
	"strings"
)

// forbidden matches characters that are invalid in Windows file and directory
// names. Unix is more permissive, but backup trees must stay portable.
var forbidden = regexp.MustCompile(`[<>:"/\\|?*]`)

// reservedNames are device names Windows refuses as a file name stem,
// regardless of extension.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

const (
	emptyPlaceholder = "_empty_"
	maxNameLength    = 255
)

// Sanitize converts an arbitrary string into a name that is safe to use as a
// single file or directory name. It never fails; input with no usable
// characters collapses to a placeholder. The reserved-name check runs on the
// stem before the first period, after stripping and trimming.
func Sanitize(name string) string {
	safe := forbidden.ReplaceAllString(name, "")

	// Drop control characters and anything outside printable ASCII.
	var b strings.Builder
	b.Grow(len(safe))
	for _, r := range safe {
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
		}
	}
	safe = strings.Trim(b.String(), ". ")

	stem, _, _ := strings.Cut(safe, ".")
	if reservedNames[strings.ToUpper(stem)] {
		safe = "_" + safe
	}

	if safe == "" {
		return emptyPlaceholder
	}
	if len(safe) > maxNameLength {
		safe = safe[:maxNameLength]
	}
	return safe
}
