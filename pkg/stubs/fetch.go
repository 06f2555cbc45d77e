package stubs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Source pins a bundle repository. Exactly one of Rev, Tag, Branch, or
// Constraint selects the revision; Constraint is a semver range matched
// against the repository's tags.
type Source struct {
	Git        string `yaml:"git"`
	Rev        string `yaml:"rev,omitempty"`
	Tag        string `yaml:"tag,omitempty"`
	Branch     string `yaml:"branch,omitempty"`
	Constraint string `yaml:"constraint,omitempty"`
}

// Sources is the declared bundle set, keyed by bundle name.
type Sources struct {
	Bundles map[string]Source `yaml:"bundles"`
}

// SourcesFileName is the declared-bundles manifest next to the config.
const SourcesFileName = "typelab-bundles.yml"

// LoadSources parses a bundle sources manifest.
func LoadSources(path string) (*Sources, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var sources Sources
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&sources); err != nil {
		return nil, fmt.Errorf("sources: parse %s: %w", path, err)
	}
	return &sources, nil
}

// Fetcher clones pinned bundle repositories into the typelab home cache.
type Fetcher struct {
	home string
	log  *zap.Logger
}

// NewFetcher returns a fetcher caching under home (typically ~/.typelab).
func NewFetcher(home string, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{home: home, log: log}
}

// CheckoutDir is where a fetched bundle version lives in the cache.
func (f *Fetcher) CheckoutDir(name, version string) string {
	return filepath.Join(f.home, "bundles", "src", sanitizeSegment(name), sanitizeSegment(version))
}

// Fetch clones the bundle source, checks out the pinned revision, and
// returns the locked entry plus the checkout directory. An existing checkout
// for an explicit rev is reused without touching the network.
func (f *Fetcher) Fetch(ctx context.Context, name string, src Source) (*LockedBundle, string, error) {
	url := strings.TrimSpace(src.Git)
	if url == "" {
		return nil, "", fmt.Errorf("bundle %q: git URL required", name)
	}

	if rev := strings.TrimSpace(src.Rev); rev != "" {
		existing := f.CheckoutDir(name, rev)
		if _, err := os.Stat(existing); err == nil {
			checksum, err := dirChecksum(existing)
			if err != nil {
				return nil, "", err
			}
			return &LockedBundle{
				Name:     name,
				Version:  rev,
				Source:   fmt.Sprintf("git+%s@%s", url, rev),
				Checksum: checksum,
			}, existing, nil
		}
	}

	baseDir := filepath.Join(f.home, "bundles", "src", sanitizeSegment(name))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, "", err
	}
	tmpDir, err := os.MkdirTemp(baseDir, "fetch-*")
	if err != nil {
		return nil, "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return nil, "", err
	}

	repo, err := git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, "", fmt.Errorf("git clone %s: %w", url, err)
	}

	revision, descriptor, err := resolveRevision(repo, src)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, "", fmt.Errorf("bundle %q: %w", name, err)
	}
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	version := descriptor
	if version == "" {
		version = hash.String()
	}
	targetDir := f.CheckoutDir(name, version)
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
	} else {
		worktree, err := repo.Worktree()
		if err != nil {
			_ = os.RemoveAll(tmpDir)
			return nil, "", err
		}
		if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
			_ = os.RemoveAll(tmpDir)
			return nil, "", fmt.Errorf("git checkout %s: %w", revision, err)
		}
		if err := os.Rename(tmpDir, targetDir); err != nil {
			_ = os.RemoveAll(tmpDir)
			return nil, "", err
		}
	}

	checksum, err := dirChecksum(targetDir)
	if err != nil {
		return nil, "", err
	}
	f.log.Info("fetched bundle",
		zap.String("bundle", name), zap.String("version", version), zap.String("commit", hash.String()))
	return &LockedBundle{
		Name:     name,
		Version:  version,
		Source:   fmt.Sprintf("git+%s@%s", url, hash.String()),
		Checksum: checksum,
	}, targetDir, nil
}

// Sync fetches every declared bundle whose lock entry is missing or stale
// and returns the checkout directories in bundle-name order. A bundle whose
// lock matches its cached checkout is left alone.
func (f *Fetcher) Sync(ctx context.Context, lock *Lockfile, sources *Sources) ([]string, error) {
	if sources == nil || len(sources.Bundles) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(sources.Bundles))
	for name := range sources.Bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	dirs := make([]string, len(names))
	var mu sync.Mutex
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	for i, name := range names {
		i, name := i, name
		src := sources.Bundles[name]
		group.Go(func() error {
			mu.Lock()
			locked := lock.Find(name)
			mu.Unlock()
			if locked != nil {
				dir := f.CheckoutDir(name, locked.Version)
				if checksum, err := dirChecksum(dir); err == nil && checksum == locked.Checksum {
					f.log.Debug("bundle up to date", zap.String("bundle", name))
					dirs[i] = dir
					return nil
				}
			}
			locked, dir, err := f.Fetch(ctx, name, src)
			if err != nil {
				return err
			}
			mu.Lock()
			lock.Upsert(locked)
			mu.Unlock()
			dirs[i] = dir
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return dirs, nil
}

// resolveRevision turns the source pin into a git revision. A semver
// constraint selects the highest matching repository tag.
func resolveRevision(repo *git.Repository, src Source) (plumbing.Revision, string, error) {
	if rev := strings.TrimSpace(src.Rev); rev != "" {
		return plumbing.Revision(rev), rev, nil
	}
	if tag := strings.TrimSpace(src.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag, nil
	}
	if branch := strings.TrimSpace(src.Branch); branch != "" {
		return plumbing.Revision("refs/heads/" + branch), branch, nil
	}
	if raw := strings.TrimSpace(src.Constraint); raw != "" {
		constraint, err := semver.NewConstraint(raw)
		if err != nil {
			return "", "", fmt.Errorf("constraint %q: %w", raw, err)
		}
		tag, err := highestMatchingTag(repo, constraint)
		if err != nil {
			return "", "", err
		}
		return plumbing.Revision("refs/tags/" + tag), tag, nil
	}
	return "", "", fmt.Errorf("source requires rev, tag, branch, or constraint")
}

func highestMatchingTag(repo *git.Repository, constraint *semver.Constraints) (string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return "", fmt.Errorf("list tags: %w", err)
	}
	var bestName string
	var bestVersion *semver.Version
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		version, err := semver.NewVersion(name)
		if err != nil {
			// Non-semver tags are simply not candidates.
			return nil
		}
		if !constraint.Check(version) {
			return nil
		}
		if bestVersion == nil || version.GreaterThan(bestVersion) {
			bestVersion = version
			bestName = name
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if bestName == "" {
		return "", fmt.Errorf("no tag satisfies constraint %s", constraint)
	}
	return bestName, nil
}

// dirChecksum hashes a checkout's file names and contents, ignoring .git.
func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "head"
	}
	return b.String()
}
