package stubs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typelab/pkg/stubs"
)

// initBundleRepo builds a local bundle repository with two tagged versions.
func initBundleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	commit := func(manifest, tag string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, stubs.BundleManifestName), []byte(manifest), 0o644))
		_, err := worktree.Add(stubs.BundleManifestName)
		require.NoError(t, err)
		hash, err := worktree.Commit("release "+tag, &git.CommitOptions{
			Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
		})
		require.NoError(t, err)
		_, err = repo.CreateTag(tag, hash, nil)
		require.NoError(t, err)
	}

	commit("name: zoo\nversion: 1.0.0\n", "v1.0.0")
	commit("name: zoo\nversion: 1.1.0\n", "v1.1.0")
	return dir
}

func TestFetchByTag(t *testing.T) {
	repoDir := initBundleRepo(t)
	fetcher := stubs.NewFetcher(t.TempDir(), nil)

	locked, dir, err := fetcher.Fetch(context.Background(), "zoo", stubs.Source{Git: repoDir, Tag: "v1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, "zoo", locked.Name)
	assert.Equal(t, "v1.0.0", locked.Version)
	assert.NotEmpty(t, locked.Checksum)

	bundle, err := stubs.LoadBundleDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", bundle.Version, "checkout holds the tagged content")
}

func TestFetchByConstraint(t *testing.T) {
	repoDir := initBundleRepo(t)
	fetcher := stubs.NewFetcher(t.TempDir(), nil)

	locked, _, err := fetcher.Fetch(context.Background(), "zoo", stubs.Source{Git: repoDir, Constraint: "^1.0"})
	require.NoError(t, err)
	assert.Equal(t, "v1.1.0", locked.Version, "constraint selects the highest matching tag")
}

func TestFetchRequiresAPin(t *testing.T) {
	repoDir := initBundleRepo(t)
	fetcher := stubs.NewFetcher(t.TempDir(), nil)

	_, _, err := fetcher.Fetch(context.Background(), "zoo", stubs.Source{Git: repoDir})
	assert.ErrorContains(t, err, "rev, tag, branch, or constraint")
}

func TestFetchReusesExplicitRevCheckout(t *testing.T) {
	home := t.TempDir()
	fetcher := stubs.NewFetcher(home, nil)

	// Seed the cache; the URL is never dereferenced when the checkout exists.
	existing := fetcher.CheckoutDir("zoo", "abc123")
	require.NoError(t, os.MkdirAll(existing, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(existing, "cached.txt"), []byte("cached"), 0o644))

	locked, dir, err := fetcher.Fetch(context.Background(), "zoo", stubs.Source{Git: "https://invalid.example/zoo.git", Rev: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, existing, dir)
	assert.Equal(t, "abc123", locked.Version)
	assert.NotEmpty(t, locked.Checksum)
}

func TestSyncSkipsUpToDateBundles(t *testing.T) {
	repoDir := initBundleRepo(t)
	home := t.TempDir()
	fetcher := stubs.NewFetcher(home, nil)
	lock := stubs.NewLockfile("typelab test")
	sources := &stubs.Sources{Bundles: map[string]stubs.Source{
		"zoo": {Git: repoDir, Tag: "v1.1.0"},
	}}

	dirs, err := fetcher.Sync(context.Background(), lock, sources)
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	require.NotNil(t, lock.Find("zoo"))
	firstChecksum := lock.Find("zoo").Checksum

	// A second sync with a matching lock must not refetch or change the lock.
	dirs, err = fetcher.Sync(context.Background(), lock, sources)
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, firstChecksum, lock.Find("zoo").Checksum)
}

func TestSyncFetchesManyBundles(t *testing.T) {
	home := t.TempDir()
	fetcher := stubs.NewFetcher(home, nil)
	lock := stubs.NewLockfile("typelab test")

	// Seeded rev checkouts keep every bundle on the fast path, so all four
	// workers hit the lockfile at once.
	names := []string{"alpha", "beta", "gamma", "zoo"}
	sources := &stubs.Sources{Bundles: map[string]stubs.Source{}}
	for _, name := range names {
		dir := fetcher.CheckoutDir(name, "rev-"+name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "stub.pyi"), []byte("class Thing: ...\n"), 0o644))
		sources.Bundles[name] = stubs.Source{Git: "https://invalid.example/" + name + ".git", Rev: "rev-" + name}
	}

	dirs, err := fetcher.Sync(context.Background(), lock, sources)
	require.NoError(t, err)
	require.Len(t, dirs, len(names))
	for _, name := range names {
		locked := lock.Find(name)
		require.NotNil(t, locked, "missing lock entry for %s", name)
		assert.Equal(t, "rev-"+name, locked.Version)
	}
}

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), stubs.SourcesFileName)
	require.NoError(t, os.WriteFile(path, []byte("bundles:\n  zoo:\n    git: https://example.com/zoo.git\n    tag: v1.0.0\n"), 0o644))

	sources, err := stubs.LoadSources(path)
	require.NoError(t, err)
	require.Contains(t, sources.Bundles, "zoo")
	assert.Equal(t, "v1.0.0", sources.Bundles["zoo"].Tag)
}
