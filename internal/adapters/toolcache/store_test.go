package toolcache_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/toolcache/internal/adapters/toolcache"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
	"gopkg.in/yaml.v3"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*toolcache.Store, string) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()

	root := t.TempDir()
	return toolcache.NewStore(root, mockLogger,
		toolcache.WithArch("x64"),
		toolcache.WithClock(func() time.Time { return fixedTime }),
	), root
}

func writeBinary(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bin")
	//nolint:gosec // test binary
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	return path
}

func binaryName(tool string) string {
	return domain.BinaryName(tool, runtime.GOOS)
}

func TestCacheVersion(t *testing.T) {
	tests := []struct {
		version string
		want    string
		wantErr bool
	}{
		{version: "v1.2.3", want: "1.2.3"},
		{version: "v2.0.0-rc.1", want: "2.0.0-rc.1"},
		{version: "v0.0.0-20240101000000-abcdef123456", want: "0.0.0-20240101000000-abcdef123456"},
		{version: "v1.2", want: "v1.2"},
		{version: "master", want: "master"},
		{version: "", wantErr: true},
		{version: "..", wantErr: true},
		{version: "feature/x", want: "feature%2Fx"},
		{version: `win\path`, want: "win%5Cpath"},
		{version: "50%", want: "50%25"},
		{version: ".", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := toolcache.CacheVersion(tt.version)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorContains(t, err, domain.ErrInvalidVersion.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_FindMiss(t *testing.T) {
	store, _ := newStore(t)

	entry, err := store.Find(context.Background(), domain.CacheKey{Tool: "tool", Version: "v1.0.0"})
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_StoreThenFind(t *testing.T) {
	store, root := newStore(t)
	ctx := context.Background()
	key := domain.CacheKey{Tool: "stringer", Version: "v0.20.0"}

	stored, err := store.Store(ctx, "golang.org/x/tools/cmd/stringer", key, writeBinary(t, "binary-v1"))
	require.NoError(t, err)

	wantDir := filepath.Join(root, "stringer", "0.20.0", "x64")
	assert.Equal(t, wantDir, stored.Dir)
	assert.Equal(t, int64(len("binary-v1")), stored.Size)
	assert.Len(t, stored.Digest, 16)
	assert.Equal(t, fixedTime, stored.Created)

	cached := filepath.Join(wantDir, binaryName("stringer"))
	content, err := os.ReadFile(cached)
	require.NoError(t, err)
	assert.Equal(t, "binary-v1", string(content))

	info, err := os.Stat(cached)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100)

	found, err := store.Find(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, stored.Dir, found.Dir)
	assert.Equal(t, "golang.org/x/tools/cmd/stringer", found.Module)
	assert.Equal(t, stored.Digest, found.Digest)

	// Only the entry and its marker remain next to each other.
	children, err := os.ReadDir(filepath.Dir(wantDir))
	require.NoError(t, err)
	names := make([]string, 0, len(children))
	for _, c := range children {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"x64", "x64.complete"}, names)
}

func TestStore_MarkerContent(t *testing.T) {
	store, root := newStore(t)
	key := domain.CacheKey{Tool: "tool", Version: "v1.2.3"}

	_, err := store.Store(context.Background(), "example.com/owner/tool", key, writeBinary(t, "abc"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "tool", "1.2.3", "x64.complete"))
	require.NoError(t, err)

	var m toolcache.Marker
	require.NoError(t, yaml.Unmarshal(data, &m))
	assert.Equal(t, "tool", m.Tool)
	assert.Equal(t, "v1.2.3", m.Version)
	assert.Equal(t, "example.com/owner/tool", m.Module)
	assert.Equal(t, "x64", m.Arch)
	assert.Equal(t, int64(3), m.Size)
	assert.True(t, m.Created.Equal(fixedTime))
}

func TestStore_ExistingKeyIsNotOverwritten(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	key := domain.CacheKey{Tool: "tool", Version: "v1.0.0"}

	first, err := store.Store(ctx, "example.com/tool", key, writeBinary(t, "first"))
	require.NoError(t, err)

	second, err := store.Store(ctx, "example.com/tool", key, filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, first.Dir, second.Dir)
	assert.Equal(t, first.Digest, second.Digest)

	content, err := os.ReadFile(filepath.Join(first.Dir, binaryName("tool")))
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))
}

func TestStore_IncompleteEntryIsReplaced(t *testing.T) {
	store, root := newStore(t)
	ctx := context.Background()
	key := domain.CacheKey{Tool: "tool", Version: "v1.0.0"}

	// Leftover from an interrupted run: binary present, no marker.
	partial := filepath.Join(root, "tool", "1.0.0", "x64")
	require.NoError(t, os.MkdirAll(partial, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(partial, binaryName("tool")), []byte("trunc"), domain.FilePerm))

	found, err := store.Find(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, found)

	stored, err := store.Store(ctx, "example.com/tool", key, writeBinary(t, "complete"))
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(stored.Dir, binaryName("tool")))
	require.NoError(t, err)
	assert.Equal(t, "complete", string(content))
}

func TestStore_SeparateProcessesShareEntries(t *testing.T) {
	first, root := newStore(t)
	ctx := context.Background()
	key := domain.CacheKey{Tool: "tool", Version: "v1.0.0"}

	ctrl := gomock.NewController(t)
	peerLogger := mocks.NewMockLogger(ctrl)
	peerLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	// A second store on the same root has its own key locks, like another process.
	peer := toolcache.NewStore(root, peerLogger, toolcache.WithArch("x64"))

	stored, err := first.Store(ctx, "example.com/tool", key, writeBinary(t, "first"))
	require.NoError(t, err)

	again, err := peer.Store(ctx, "example.com/tool", key, writeBinary(t, "peer"))
	require.NoError(t, err)
	assert.Equal(t, stored.Dir, again.Dir)
	assert.Equal(t, stored.Digest, again.Digest)

	content, err := os.ReadFile(filepath.Join(again.Dir, binaryName("tool")))
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))
}

func TestStore_MarkerWithoutBinaryIsAMiss(t *testing.T) {
	store, root := newStore(t)

	versionDir := filepath.Join(root, "tool", "1.0.0")
	require.NoError(t, os.MkdirAll(versionDir, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(versionDir, "x64.complete"), nil, domain.FilePerm))

	found, err := store.Find(context.Background(), domain.CacheKey{Tool: "tool", Version: "v1.0.0"})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestStore_ForeignEntryIsAHit(t *testing.T) {
	store, root := newStore(t)

	// Entries created by other tool cache clients carry an empty marker.
	entryDir := filepath.Join(root, "tool", "1.0.0", "x64")
	require.NoError(t, os.MkdirAll(entryDir, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(entryDir, binaryName("tool")), []byte("x"), domain.ExecPerm))
	require.NoError(t, os.WriteFile(entryDir+".complete", nil, domain.FilePerm))

	found, err := store.Find(context.Background(), domain.CacheKey{Tool: "tool", Version: "v1.0.0"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entryDir, found.Dir)
	assert.Empty(t, found.Module)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_InvalidKey(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Find(ctx, domain.CacheKey{Tool: "../escape", Version: "v1.0.0"})
	assert.ErrorContains(t, err, domain.ErrInvalidToolName.Error())

	_, err = store.Store(ctx, "example.com/tool", domain.CacheKey{Tool: "tool", Version: ".."}, writeBinary(t, "x"))
	assert.ErrorContains(t, err, domain.ErrInvalidVersion.Error())
}

func TestStore_VersionWithSeparators(t *testing.T) {
	store, root := newStore(t)
	ctx := context.Background()
	key := domain.CacheKey{Tool: "tool", Version: "feature/x"}

	found, err := store.Find(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, found)

	entry, err := store.Store(ctx, "example.com/tool", key, writeBinary(t, "branch-build"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, filepath.Join(root, "tool", "feature%2Fx", "x64"), entry.Dir)
	assert.NoDirExists(t, filepath.Join(root, "tool", "feature"))

	found, err = store.Find(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entry.Dir, found.Dir)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key, entries[0].Key)

	removed, err := store.Remove(ctx, "tool")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, filepath.Join(root, "tool"))
}

func TestStore_MissingSource(t *testing.T) {
	store, root := newStore(t)

	_, err := store.Store(context.Background(), "example.com/tool",
		domain.CacheKey{Tool: "tool", Version: "v1.0.0"}, filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrCacheStoreFailed.Error())

	assert.NoFileExists(t, filepath.Join(root, "tool", "1.0.0", "x64.complete"))
	entries, err := os.ReadDir(filepath.Join(root, "tool", "1.0.0"))
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory must be cleaned up")
}

func TestStore_ConcurrentStoresConverge(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	key := domain.CacheKey{Tool: "tool", Version: "v1.0.0"}
	src := writeBinary(t, "same-content")

	const workers = 8
	var wg sync.WaitGroup
	dirs := make([]string, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := store.Store(ctx, "example.com/tool", key, src)
			errs[i] = err
			if entry != nil {
				dirs[i] = entry.Dir
			}
		}(i)
	}
	wg.Wait()

	found, err := store.Find(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)

	for i := range workers {
		require.NoError(t, errs[i], "worker %d", i)
		assert.Equal(t, found.Dir, dirs[i], "worker %d", i)
	}

	content, err := os.ReadFile(filepath.Join(found.Dir, binaryName("tool")))
	require.NoError(t, err)
	assert.Equal(t, "same-content", string(content))
}

func TestStore_ListAndRemove(t *testing.T) {
	store, root := newStore(t)
	ctx := context.Background()

	keys := []domain.CacheKey{
		{Tool: "stringer", Version: "v0.20.0"},
		{Tool: "golangci-lint", Version: "v1.55.2"},
		{Tool: "stringer", Version: "v0.9.0"},
		{Tool: "golangci-lint", Version: "v1.9.0"},
	}
	for _, key := range keys {
		_, err := store.Store(ctx, "example.com/"+key.Tool, key, writeBinary(t, key.String()))
		require.NoError(t, err)
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.Key.String())
	}
	assert.Equal(t, []string{
		"golangci-lint@v1.9.0",
		"golangci-lint@v1.55.2",
		"stringer@v0.9.0",
		"stringer@v0.20.0",
	}, got)

	removed, err := store.Remove(ctx, "stringer")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoDirExists(t, filepath.Join(root, "stringer"))

	entries, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	removed, err = store.Remove(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_RemoveKeepsForeignEntries(t *testing.T) {
	store, root := newStore(t)

	foreign := filepath.Join(root, "node", "20.11.0", "x64")
	require.NoError(t, os.MkdirAll(foreign, domain.DirPerm))
	require.NoError(t, os.WriteFile(foreign+".complete", nil, domain.FilePerm))

	removed, err := store.Remove(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.DirExists(t, foreign)
}

func TestStore_RemoveInvalidTool(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Remove(context.Background(), "a/b")
	assert.ErrorContains(t, err, domain.ErrInvalidToolName.Error())
}

func TestStore_CanceledContext(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Find(ctx, domain.CacheKey{Tool: "tool", Version: "v1.0.0"})
	assert.ErrorIs(t, err, context.Canceled)
}
