// Package actions publishes install results to the GitHub Actions runner.
package actions

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// Runner file variables.
const (
	EnvPath   = "GITHUB_PATH"
	EnvOutput = "GITHUB_OUTPUT"
)

var _ ports.Publisher = (*Publisher)(nil)

// Publisher implements ports.Publisher. When the runner files are not
// available it prints key=value lines to stdout instead.
type Publisher struct {
	stdout  io.Writer
	getenv  func(string) string
	newUUID func() string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithStdout sets the fallback writer.
func WithStdout(w io.Writer) Option {
	return func(p *Publisher) {
		p.stdout = w
	}
}

// WithGetenv sets the environment lookup.
func WithGetenv(getenv func(string) string) Option {
	return func(p *Publisher) {
		p.getenv = getenv
	}
}

// NewPublisher creates a Publisher.
func NewPublisher(opts ...Option) *Publisher {
	p := &Publisher{
		stdout:  os.Stdout,
		getenv:  os.Getenv,
		newUUID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddPath prepends dir to PATH for later steps.
func (p *Publisher) AddPath(dir string) error {
	if file := p.getenv(EnvPath); file != "" {
		return p.appendTo(file, dir+"\n")
	}
	return p.print("path", dir)
}

// SetOutput records a step output. Values are written with a random
// heredoc delimiter so they may contain newlines.
func (p *Publisher) SetOutput(name, value string) error {
	file := p.getenv(EnvOutput)
	if file == "" {
		return p.print(name, value)
	}

	delimiter := "ghadelimiter_" + p.newUUID()
	if strings.Contains(name, delimiter) || strings.Contains(value, delimiter) {
		return zerr.With(zerr.New("output contains the delimiter"), "name", name)
	}
	return p.appendTo(file, fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter))
}

func (p *Publisher) appendTo(file, content string) error {
	//nolint:gosec // file is provided by the runner
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, domain.FilePerm)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPublishFailed.Error()), "file", file)
	}

	_, err = f.WriteString(content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPublishFailed.Error()), "file", file)
	}
	return nil
}

func (p *Publisher) print(name, value string) error {
	if _, err := fmt.Fprintf(p.stdout, "%s=%s\n", name, value); err != nil {
		return zerr.Wrap(err, domain.ErrPublishFailed.Error())
	}
	return nil
}
