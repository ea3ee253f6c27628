package domain

import (
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/mod/module"
)

// InstallRequest describes one tool installation as supplied by the caller.
// It is read-only once Normalize has returned.
type InstallRequest struct {
	// Module is the package path of the command to build, e.g. "golang.org/x/tools/cmd/goimports".
	Module string
	// Version is a concrete version or the LatestVersion token.
	Version string
	// ToolName overrides the name derived from Module.
	ToolName string
	// Flags holds extra whitespace-separated `go install` flags.
	Flags string
	// LDFlags is passed as -ldflags=<value>, even when empty.
	LDFlags string
	// Tags is passed as -tags=<value>, even when empty.
	Tags string
	// CGO toggles native interop for the build. Nil inherits the environment.
	CGO *bool
}

// Normalize validates the request and fills in the tool name.
// It performs no I/O, so a rejected request never reaches the toolchain.
func (r InstallRequest) Normalize() (InstallRequest, error) {
	if r.Module == "" {
		return r, zerr.Wrap(ErrMissingModule, ErrInvalidRequest.Error())
	}
	if r.Version == "" {
		return r, zerr.Wrap(ErrMissingVersion, ErrInvalidRequest.Error())
	}

	if !UsableVersion(r.Version) {
		err := zerr.Wrap(ErrInvalidVersion, ErrInvalidRequest.Error())
		return r, zerr.With(err, "version", r.Version)
	}

	if r.ToolName == "" {
		r.ToolName = DeriveToolName(r.Module)
	}
	if !ValidToolName(r.ToolName) {
		err := zerr.Wrap(ErrInvalidToolName, ErrInvalidRequest.Error())
		return r, zerr.With(err, "tool", r.ToolName)
	}

	if err := module.CheckImportPath(r.Module); err != nil {
		pathErr := zerr.Wrap(err, ErrInvalidModulePath.Error())
		return r, zerr.With(pathErr, "module", r.Module)
	}

	return r, nil
}

// BuildFlags splits Flags on whitespace. An empty string yields no flags.
func (r InstallRequest) BuildFlags() []string {
	return strings.Fields(r.Flags)
}

// ParseCgo interprets the cgo input. "false" and "true" are explicit; the
// empty string means inherit. Any other value is reported as not ok and
// treated as inherit.
func ParseCgo(value string) (cgo *bool, ok bool) {
	switch strings.TrimSpace(value) {
	case "":
		return nil, true
	case "false":
		disabled := false
		return &disabled, true
	case "true":
		enabled := true
		return &enabled, true
	default:
		return nil, false
	}
}
