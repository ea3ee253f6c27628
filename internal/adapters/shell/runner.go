// Package shell runs external commands for the toolchain adapters.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// stderrTailLimit bounds how much stderr is attached to a command error.
const stderrTailLimit = 4096

// Runner implements ports.CommandRunner using os/exec.
type Runner struct {
	logger ports.Logger
}

// NewRunner creates a new Runner that streams child stderr to logger.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{
		logger: logger,
	}
}

// Run executes cmd and returns everything it wrote to stdout.
// Stderr is streamed line by line to the logger and the tail of it is
// attached to the returned error when the command fails.
func (r *Runner) Run(ctx context.Context, cmd ports.Command) ([]byte, error) {
	env := resolveEnvironment(os.Environ(), cmd.Env)

	executable := cmd.Name
	if !filepath.IsAbs(executable) {
		if lp, err := lookPath(executable, env); err == nil {
			executable = lp
		}
	}

	//nolint:gosec // command and arguments are assembled by the toolchain adapters
	c := exec.CommandContext(ctx, executable, cmd.Args...)
	c.Args[0] = cmd.Name
	c.Env = env
	c.Dir = cmd.Dir

	stdoutPipe, err := c.StdoutPipe()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open stdout pipe")
	}
	stderrPipe, err := c.StderrPipe()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open stderr pipe")
	}

	if err := c.Start(); err != nil {
		startErr := zerr.Wrap(err, domain.ErrCommandFailed.Error())
		return nil, zerr.With(startErr, "command", commandLine(cmd))
	}

	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: stderrTailLimit}
	stderrLog := &logWriter{logger: r.logger}

	// Both pipes must be drained before Wait closes them.
	var pumps errgroup.Group
	pumps.Go(func() error {
		_, err := io.Copy(&stdout, stdoutPipe)
		return err
	})
	pumps.Go(func() error {
		defer func() { _ = stderrLog.Close() }()
		_, err := io.Copy(io.MultiWriter(stderr, stderrLog), stderrPipe)
		return err
	})
	pumpErr := pumps.Wait()

	if err := c.Wait(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		runErr := zerr.Wrap(err, domain.ErrCommandFailed.Error())
		runErr = zerr.With(runErr, "command", commandLine(cmd))
		runErr = zerr.With(runErr, "exit_code", exitCode)
		return stdout.Bytes(), zerr.With(runErr, "stderr", strings.TrimSpace(stderr.String()))
	}

	if pumpErr != nil {
		return stdout.Bytes(), zerr.Wrap(pumpErr, "failed to read command output")
	}

	return stdout.Bytes(), nil
}

// commandLine renders cmd for error metadata.
func commandLine(cmd ports.Command) string {
	return strings.Join(append([]string{cmd.Name}, cmd.Args...), " ")
}

// resolveEnvironment applies overrides on top of the inherited environment.
// An override replaces any inherited entry with the same key.
func resolveEnvironment(sysEnv, overrides []string) []string {
	if len(overrides) == 0 {
		return sysEnv
	}

	overridden := make(map[string]struct{}, len(overrides))
	for _, entry := range overrides {
		if k, _, ok := strings.Cut(entry, "="); ok {
			overridden[k] = struct{}{}
		}
	}

	result := make([]string, 0, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		k, _, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, skip := overridden[k]; skip {
			continue
		}
		result = append(result, entry)
	}
	return append(result, overrides...)
}

// lookPath searches for an executable in the directories named by the PATH entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
