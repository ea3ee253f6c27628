package gobuild_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/toolcache/internal/adapters/gobuild"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/toolcache/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// envValue returns the value of key in a KEY=VALUE list.
func envValue(env []string, key string) (string, bool) {
	for _, e := range env {
		if k, v, ok := strings.Cut(e, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

// installInto fakes `go install` by writing name into GOBIN.
func installInto(t *testing.T, name string) func(context.Context, ports.Command) ([]byte, error) {
	t.Helper()
	return func(_ context.Context, cmd ports.Command) ([]byte, error) {
		gobin, ok := envValue(cmd.Env, "GOBIN")
		require.True(t, ok)
		//nolint:gosec // test binary
		require.NoError(t, os.WriteFile(filepath.Join(gobin, name), []byte("#!/bin/sh\n"), 0o755))
		return nil, nil
	}
}

func TestBuilder_Build_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRunner := mocks.NewMockCommandRunner(ctrl)
	tmp := t.TempDir()

	req := domain.InstallRequest{
		Module:   "golang.org/x/tools/cmd/stringer",
		Version:  "latest",
		ToolName: "stringer",
		Flags:    "-trimpath",
		LDFlags:  "-s -w",
	}
	key := domain.CacheKey{Tool: "stringer", Version: "v0.20.0"}

	mockRunner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, cmd ports.Command) ([]byte, error) {
			assert.Equal(t, "go", cmd.Name)
			assert.Equal(t, []string{
				"install", "-trimpath", "-ldflags=-s -w", "-tags=", "golang.org/x/tools/cmd/stringer@v0.20.0",
			}, cmd.Args)

			gobin, _ := envValue(cmd.Env, "GOBIN")
			assert.Equal(t, tmp, filepath.Dir(gobin))
			assert.True(t, strings.HasPrefix(filepath.Base(gobin), domain.WorkspacePattern))

			_, hasCgo := envValue(cmd.Env, "CGO_ENABLED")
			assert.False(t, hasCgo)

			return installInto(t, "stringer")(ctx, cmd)
		})

	builder := gobuild.NewBuilder(mockRunner, "", gobuild.WithTempDir(tmp), gobuild.WithGOOS("linux"))

	binPath, cleanup, err := builder.Build(context.Background(), req, key)
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	assert.FileExists(t, binPath)
	assert.Equal(t, "stringer", filepath.Base(binPath))

	cleanup()
	assert.NoDirExists(t, filepath.Dir(binPath))
}

func TestBuilder_Build_DoesNotMutateProcessEnvironment(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRunner := mocks.NewMockCommandRunner(ctrl)
	t.Setenv("GOBIN", "/home/ci/go/bin")
	t.Setenv("CGO_ENABLED", "1")

	disabled := false
	req := domain.InstallRequest{Module: "example.com/tool", Version: "v1.0.0", ToolName: "tool", CGO: &disabled}

	mockRunner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, cmd ports.Command) ([]byte, error) {
			cgo, ok := envValue(cmd.Env, "CGO_ENABLED")
			assert.True(t, ok)
			assert.Equal(t, "0", cgo)
			return installInto(t, "tool")(ctx, cmd)
		})

	builder := gobuild.NewBuilder(mockRunner, "go", gobuild.WithTempDir(t.TempDir()), gobuild.WithGOOS("linux"))

	_, cleanup, err := builder.Build(context.Background(), req, domain.CacheKey{Tool: "tool", Version: "v1.0.0"})
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "/home/ci/go/bin", os.Getenv("GOBIN"))
	assert.Equal(t, "1", os.Getenv("CGO_ENABLED"))
}

func TestBuilder_Build_WindowsBinaryName(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRunner := mocks.NewMockCommandRunner(ctrl)
	mockRunner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(installInto(t, "tool.exe"))

	builder := gobuild.NewBuilder(mockRunner, "go", gobuild.WithTempDir(t.TempDir()), gobuild.WithGOOS("windows"))

	binPath, cleanup, err := builder.Build(context.Background(),
		domain.InstallRequest{Module: "example.com/tool", ToolName: "tool"},
		domain.CacheKey{Tool: "tool", Version: "v1.0.0"})
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "tool.exe", filepath.Base(binPath))
}

func TestBuilder_Build_InstallFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRunner := mocks.NewMockCommandRunner(ctrl)
	mockRunner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(nil, errors.New("exit status 1"))

	builder := gobuild.NewBuilder(mockRunner, "go", gobuild.WithTempDir(t.TempDir()))

	binPath, cleanup, err := builder.Build(context.Background(),
		domain.InstallRequest{Module: "example.com/tool", ToolName: "tool"},
		domain.CacheKey{Tool: "tool", Version: "v1.0.0"})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrBuildFailed.Error())
	assert.Empty(t, binPath)
	require.NotNil(t, cleanup)
	cleanup()
}

func TestBuilder_Build_BinaryMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRunner := mocks.NewMockCommandRunner(ctrl)
	// The build succeeds but produces a differently named binary.
	mockRunner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(installInto(t, "other"))

	tmp := t.TempDir()
	builder := gobuild.NewBuilder(mockRunner, "go", gobuild.WithTempDir(tmp), gobuild.WithGOOS("linux"))

	_, cleanup, err := builder.Build(context.Background(),
		domain.InstallRequest{Module: "example.com/owner/cmd/foo", ToolName: "foo"},
		domain.CacheKey{Tool: "foo", Version: "v1.0.0"})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrBinaryNotFound.Error())

	require.NotNil(t, cleanup)
	cleanup()
	entries, readErr := os.ReadDir(tmp)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestBuilder_Build_WorkspaceCreationFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRunner := mocks.NewMockCommandRunner(ctrl)
	mockRunner.EXPECT().Run(gomock.Any(), gomock.Any()).Times(0)

	builder := gobuild.NewBuilder(mockRunner, "go", gobuild.WithTempDir(filepath.Join(t.TempDir(), "missing")))

	_, cleanup, err := builder.Build(context.Background(),
		domain.InstallRequest{Module: "example.com/tool", ToolName: "tool"},
		domain.CacheKey{Tool: "tool", Version: "v1.0.0"})
	require.Error(t, err)
	assert.Nil(t, cleanup)
	assert.ErrorContains(t, err, domain.ErrWorkspaceCreateFailed.Error())
}

func TestInstallArgs(t *testing.T) {
	tests := []struct {
		name string
		req  domain.InstallRequest
		want []string
	}{
		{
			name: "empty flags add nothing",
			req:  domain.InstallRequest{Module: "example.com/tool"},
			want: []string{"install", "-ldflags=", "-tags=", "example.com/tool@v1.2.3"},
		},
		{
			name: "flags split on whitespace",
			req:  domain.InstallRequest{Module: "example.com/tool", Flags: "-trimpath  -mod=mod", Tags: "netgo,osusergo"},
			want: []string{"install", "-trimpath", "-mod=mod", "-ldflags=", "-tags=netgo,osusergo", "example.com/tool@v1.2.3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gobuild.InstallArgs(tt.req, "v1.2.3"))
		})
	}
}

func TestBuildEnv(t *testing.T) {
	enabled, disabled := true, false
	assert.Equal(t, []string{"GOBIN=/w"}, gobuild.BuildEnv("/w", nil))
	assert.Equal(t, []string{"GOBIN=/w", "CGO_ENABLED=1"}, gobuild.BuildEnv("/w", &enabled))
	assert.Equal(t, []string{"GOBIN=/w", "CGO_ENABLED=0"}, gobuild.BuildEnv("/w", &disabled))
}
