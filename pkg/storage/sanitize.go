package storage

import "strings"

// unnamedFallback is substituted for any filename that sanitizes to empty.
const unnamedFallback = "unnamed"

// SanitizeFilename reduces name to its last path-separator-delimited
// segment with every ".." sequence removed, and substitutes "unnamed" for
// an empty result. It is applied before any lock-key, storage-key, or
// metadata-key use of a client-supplied filename, so a single pass here is
// enough to keep traversal sequences out of every collaborator.
func SanitizeFilename(name string) string {
	name = lastSegment(name)
	name = strings.ReplaceAll(name, "..", "")
	name = lastSegment(name)
	if name == "" {
		return unnamedFallback
	}
	return name
}

// lastSegment returns the portion of name after the last '/' or '\', or
// name itself if neither separator is present.
func lastSegment(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
