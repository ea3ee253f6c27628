// Package ports defines the core interfaces for the application.
package ports

import "context"

// Command describes one external process invocation.
type Command struct {
	// Name is the executable, resolved through PATH.
	Name string
	// Args are the arguments after Name.
	Args []string
	// Env holds "KEY=VALUE" overrides applied on top of the inherited
	// environment for this invocation only.
	Env []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// CommandRunner runs external tools. It is the only boundary through which
// the application starts processes.
//
//go:generate mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type CommandRunner interface {
	// Run executes the command and returns its complete standard output.
	// It returns an error if the process cannot be started or exits non-zero.
	Run(ctx context.Context, cmd Command) ([]byte, error)
}
