package domain

import "strings"

// cmdSegment is the conventional wrapper directory for a module's commands.
const cmdSegment = "cmd"

// DeriveToolName returns the default tool name for a module path: its last
// segment, or the segment before a trailing "cmd".
func DeriveToolName(modulePath string) string {
	parts := strings.Split(modulePath, "/")
	name := parts[len(parts)-1]
	parts = parts[:len(parts)-1]

	if name == cmdSegment && len(parts) > 0 {
		name = parts[len(parts)-1]
	}

	return name
}

// ValidToolName reports whether name can be used as a binary file name.
func ValidToolName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// BinaryName returns the file name `go install` produces for a tool on goos.
func BinaryName(tool, goos string) string {
	if goos == "windows" {
		return tool + ".exe"
	}
	return tool
}
