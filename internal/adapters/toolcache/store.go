// Package toolcache implements the persistent tool cache on the local
// filesystem, using the directory layout of the GitHub runner tool cache.
package toolcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

var _ ports.ToolCache = (*Store)(nil)

// Store implements ports.ToolCache.
//
// An entry is published by renaming a fully written directory into place
// and then writing its completion marker. Readers only trust entries whose
// marker exists, so a crashed or concurrent writer never exposes a partial
// binary.
type Store struct {
	root   string
	arch   string
	goos   string
	logger ports.Logger
	now    func() time.Time

	// locks serializes stores of the same key within this process.
	locks sync.Map
}

// Option configures a Store.
type Option func(*Store)

// WithArch overrides the architecture directory name.
func WithArch(arch string) Option {
	return func(s *Store) {
		s.arch = arch
	}
}

// WithClock overrides the clock used for marker timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store rooted at root.
func NewStore(root string, logger ports.Logger, opts ...Option) *Store {
	s := &Store{
		root:   root,
		arch:   domain.HostArch(),
		goos:   runtime.GOOS,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// Find returns the published entry for key, or nil if there is none.
func (s *Store) Find(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.pathsFor(key)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(p.marker); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheLookupFailed.Error()), "key", key.String())
	}

	info, err := os.Stat(p.binary)
	if err != nil || info.IsDir() {
		// A marker without its binary is not a usable entry.
		return nil, nil
	}

	entry := &domain.CacheEntry{
		Key:  key,
		Arch: s.arch,
		Dir:  p.entryDir,
		Size: info.Size(),
	}

	m, err := readMarker(p.marker)
	if err != nil {
		s.logger.Debug(fmt.Sprintf("ignoring unreadable marker for %s: %v", key, err))
		return entry, nil
	}
	entry.Module = m.Module
	entry.Digest = m.Digest
	entry.Created = m.Created
	return entry, nil
}

// Store copies sourceFile into the cache as the artifact for key. If key is
// already published the existing entry is returned unchanged.
func (s *Store) Store(
	ctx context.Context,
	module string,
	key domain.CacheKey,
	sourceFile string,
) (*domain.CacheEntry, error) {
	unlock := s.lock(key)
	defer unlock()

	existing, err := s.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	p, err := s.pathsFor(key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.versionDir, domain.DirPerm); err != nil {
		return nil, s.storeErr(err, key, "failed to create version directory")
	}

	staging, err := os.MkdirTemp(p.versionDir, "."+s.arch+"-staging-")
	if err != nil {
		return nil, s.storeErr(err, key, "failed to create staging directory")
	}
	defer func() {
		_ = os.RemoveAll(staging)
	}()

	binaryName := filepath.Base(p.binary)
	size, digest, err := copyExecutable(sourceFile, filepath.Join(staging, binaryName))
	if err != nil {
		return nil, s.storeErr(err, key, "failed to copy binary")
	}

	// The key lock only serializes stores within this process. Without a
	// marker, anything at entryDir is either left over from an interrupted
	// store or a peer process still writing; the rename below loses to a
	// peer that gets there first.
	if err := os.RemoveAll(p.entryDir); err != nil {
		return nil, s.storeErr(err, key, "failed to remove incomplete entry")
	}
	if err := os.Rename(staging, p.entryDir); err != nil {
		// Another process may have published the same key meanwhile.
		if winner, findErr := s.Find(ctx, key); findErr == nil && winner != nil {
			return winner, nil
		}
		return nil, s.storeErr(err, key, "failed to move entry into place")
	}

	marker := &Marker{
		Tool:    key.Tool,
		Version: key.Version,
		Module:  module,
		Arch:    s.arch,
		Size:    size,
		Digest:  digest,
		Created: s.now().UTC(),
	}
	if err := writeMarker(p.marker, marker); err != nil {
		return nil, s.storeErr(err, key, "failed to write completion marker")
	}

	s.logger.Debug(fmt.Sprintf("cached %s (%s, xxh64 %s)", key, humanize.Bytes(uint64(size)), digest))

	return &domain.CacheEntry{
		Key:     key,
		Module:  module,
		Arch:    s.arch,
		Dir:     p.entryDir,
		Size:    size,
		Digest:  digest,
		Created: marker.Created,
	}, nil
}

func (s *Store) lock(key domain.CacheKey) func() {
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Store) storeErr(err error, key domain.CacheKey, msg string) error {
	storeErr := zerr.Wrap(zerr.Wrap(err, msg), domain.ErrCacheStoreFailed.Error())
	return zerr.With(storeErr, "key", key.String())
}

// copyExecutable copies src to dst with executable permissions and returns
// the size and xxhash64 digest of the copied content.
func copyExecutable(src, dst string) (size int64, digest string, err error) {
	//nolint:gosec // src is the binary produced by the builder or fetched remotely
	in, err := os.Open(src)
	if err != nil {
		return 0, "", err
	}
	defer func() {
		_ = in.Close()
	}()

	//nolint:gosec // dst is inside a staging directory owned by this process
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.ExecPerm)
	if err != nil {
		return 0, "", err
	}

	hasher := xxhash.New()
	size, err = io.Copy(io.MultiWriter(out, hasher), in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, "", err
	}
	if err := os.Chmod(dst, domain.ExecPerm); err != nil {
		return 0, "", err
	}

	return size, fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// List returns the entries this tool has published for the store's
// architecture, sorted by tool and then by version. Entries written by other
// tool cache clients carry no module and are skipped.
func (s *Store) List(ctx context.Context) ([]domain.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pattern := filepath.Join(s.root, "*", "*", s.arch+domain.CompleteMarkerSuffix)
	markers, err := filepath.Glob(pattern)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheLookupFailed.Error())
	}

	entries := make([]domain.CacheEntry, 0, len(markers))
	for _, markerPath := range markers {
		m, err := readMarker(markerPath)
		if err != nil || m.Module == "" {
			continue
		}

		entryDir := strings.TrimSuffix(markerPath, domain.CompleteMarkerSuffix)
		entries = append(entries, domain.CacheEntry{
			Key:     domain.CacheKey{Tool: m.Tool, Version: m.Version},
			Module:  m.Module,
			Arch:    s.arch,
			Dir:     entryDir,
			Size:    m.Size,
			Digest:  m.Digest,
			Created: m.Created,
		})
	}

	sortEntries(entries)
	return entries, nil
}

func sortEntries(entries []domain.CacheEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Key, entries[j].Key
		if a.Tool != b.Tool {
			return a.Tool < b.Tool
		}
		if c := semver.Compare(a.Version, b.Version); c != 0 {
			return c < 0
		}
		return a.Version < b.Version
	})
}

// Remove deletes the published entries for tool, or all of them when tool is
// empty, and returns how many were removed. The marker goes first so a
// concurrent reader never sees a half-removed entry as published.
func (s *Store) Remove(ctx context.Context, tool string) (int, error) {
	if tool != "" && !domain.ValidToolName(tool) {
		return 0, zerr.With(domain.ErrInvalidToolName, "tool", tool)
	}

	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for i := range entries {
		entry := &entries[i]
		if tool != "" && entry.Key.Tool != tool {
			continue
		}

		if err := os.Remove(entry.Dir + domain.CompleteMarkerSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, zerr.With(zerr.Wrap(err, domain.ErrCacheRemoveFailed.Error()), "key", entry.Key.String())
		}
		if err := os.RemoveAll(entry.Dir); err != nil {
			return removed, zerr.With(zerr.Wrap(err, domain.ErrCacheRemoveFailed.Error()), "key", entry.Key.String())
		}
		removed++

		versionDir := filepath.Dir(entry.Dir)
		removeIfEmpty(versionDir)
		removeIfEmpty(filepath.Dir(versionDir))
	}

	return removed, nil
}

// removeIfEmpty removes dir when it has no children left.
func removeIfEmpty(dir string) {
	children, err := os.ReadDir(dir)
	if err == nil && len(children) == 0 {
		_ = os.Remove(dir)
	}
}
