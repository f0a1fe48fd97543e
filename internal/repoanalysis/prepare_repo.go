// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repoanalysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/codeparse"
	"github.com/aleutian-labs/repowiki/internal/flow"
)

// ErrRepoTooLarge is returned when a working tree exceeds PrepareRepoConfig.MaxRepoSize.
var ErrRepoTooLarge = errors.New("repoanalysis: repository exceeds max_repo_size")

// RepoCacheEntry mirrors spec.md §3.2: the on-disk record of a previously
// fetched URL, consulted by PrepareRepo before deciding to clone again.
type RepoCacheEntry struct {
	URLHash   string        `json:"url_hash"`
	LocalPath string        `json:"local_path"`
	FetchedAt time.Time     `json:"fetched_at"`
	TTL       time.Duration `json:"ttl"`
	Branch    string        `json:"branch"`
}

func (e RepoCacheEntry) expired(now time.Time) bool {
	if e.TTL <= 0 {
		return true
	}
	return now.Sub(e.FetchedAt) >= e.TTL
}

// PrepareRepoConfig configures the PrepareRepo node, sourced from the
// repo.* keys in spec.md §6.1's process-variable surface.
type PrepareRepoConfig struct {
	CacheDir      string
	DefaultBranch string
	CacheTTL      time.Duration
	ForceClone    bool
	MaxRepoSize   int64 // bytes; 0 means unbounded
	// AuthToken and BasicAuthUser/Pass are injected into the clone URL for
	// the duration of the network call only, per spec.md §4.4.1, and are
	// never written to the cache entry or logged.
	AuthToken     string
	BasicAuthUser string
	BasicAuthPass string
}

// PrepareRepoNode resolves repo_source into a local working tree,
// consulting an on-disk repo cache for URL sources and verifying access
// for local paths, per spec.md §4.4.1. Grounded on
// services/code_buddy/git/classifier.go for its exec.CommandContext-based
// git plumbing convention (the teacher never wraps a Go git library);
// the cache-then-clone decision and the per-URL lock file are original,
// following spec.md §4.4.1's and §4.10's textual description directly
// since no corpus file implements a repository cache.
type PrepareRepoNode struct {
	flow.BaseNode
	Config PrepareRepoConfig
	Logger *slog.Logger
}

// NewPrepareRepoNode constructs the node with the "PrepareRepo" name.
func NewPrepareRepoNode(cfg PrepareRepoConfig, logger *slog.Logger) *PrepareRepoNode {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrepareRepoNode{
		BaseNode: flow.BaseNode{NodeName: "PrepareRepo", NodeTimeout: 5 * time.Minute},
		Config:   cfg,
		Logger:   logger.With(slog.String("node", "PrepareRepo")),
	}
}

type prepareRepoPrep struct {
	source string
}

func (n *PrepareRepoNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	source := state.GetString(blackboard.KeyRepoSource)
	if source == "" {
		return nil, fmt.Errorf("repoanalysis: %s missing from blackboard", blackboard.KeyRepoSource)
	}
	return prepareRepoPrep{source: source}, nil
}

type prepareRepoResult struct {
	localPath string
	stats     RepoStats
}

func (n *PrepareRepoNode) Execute(ctx context.Context, prep any) (any, error) {
	p := prep.(prepareRepoPrep)

	var localPath string
	var err error
	if isRemoteURL(p.source) {
		localPath, err = n.resolveRemote(ctx, p.source)
	} else {
		localPath, err = n.resolveLocal(p.source)
	}
	if err != nil {
		return nil, err
	}

	stats, err := computeRepoStats(localPath, n.Config.MaxRepoSize)
	if err != nil {
		return nil, err
	}

	return prepareRepoResult{localPath: localPath, stats: stats}, nil
}

func (n *PrepareRepoNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (flow.Action, error) {
	res := exec.(prepareRepoResult)
	state.Set(blackboard.KeyLocalRepoPath, res.localPath)
	state.Set(blackboard.KeyRepoStats, res.stats)
	return flow.ActionDefault, nil
}

func isRemoteURL(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https" || u.Scheme == "git" || u.Scheme == "ssh"
}

// resolveLocal verifies a local path exists, is a directory, and is
// readable, per spec.md §4.4.1's local-path branch.
func (n *PrepareRepoNode) resolveLocal(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("repoanalysis: local repo path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("repoanalysis: local repo path %q is not a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("repoanalysis: local repo path not readable: %w", err)
	}
	_ = f.Close()
	return path, nil
}

// resolveRemote hashes the URL, checks the on-disk cache under a per-URL
// lock, and either reuses a fresh cache entry or clones fresh.
func (n *PrepareRepoNode) resolveRemote(ctx context.Context, rawURL string) (string, error) {
	hash := hashURL(rawURL)
	workPath := filepath.Join(n.Config.CacheDir, "repo", hash, "work")
	cachePath := filepath.Join(n.Config.CacheDir, "repo", hash, "src")

	unlock, err := n.acquireLock(hash)
	if err != nil {
		return "", err
	}
	defer unlock()

	entry, hasCache := n.readCacheEntry(hash)
	now := time.Now()

	if !n.Config.ForceClone && hasCache && !entry.expired(now) {
		if info, statErr := os.Stat(cachePath); statErr == nil && info.IsDir() {
			n.Logger.Info("reusing cached clone", slog.String("url_hash", hash), slog.Time("fetched_at", entry.FetchedAt))
			if err := copyTree(cachePath, workPath); err != nil {
				return "", fmt.Errorf("repoanalysis: copy cached repo: %w", err)
			}
			return workPath, nil
		}
	}

	if err := n.clone(ctx, rawURL, cachePath); err != nil {
		return "", err
	}
	if err := copyTree(cachePath, workPath); err != nil {
		return "", fmt.Errorf("repoanalysis: copy freshly cloned repo: %w", err)
	}

	newEntry := RepoCacheEntry{
		URLHash:   hash,
		LocalPath: cachePath,
		FetchedAt: now,
		TTL:       n.Config.CacheTTL,
		Branch:    n.Config.DefaultBranch,
	}
	if err := n.writeCacheEntry(hash, newEntry); err != nil {
		n.Logger.Warn("failed to persist repo cache entry", slog.String("error", err.Error()))
	}
	return workPath, nil
}

// clone shells out to the system git binary, matching the teacher's
// exec.CommandContext convention (services/code_buddy/git/classifier.go
// never wraps a Go git library either). Credentials are spliced into the
// URL only for this call and never appear in a log line or on disk.
func (n *PrepareRepoNode) clone(ctx context.Context, rawURL, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("repoanalysis: clear stale cache dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("repoanalysis: create cache dir: %w", err)
	}

	cloneURL := withCredentials(rawURL, n.Config.AuthToken, n.Config.BasicAuthUser, n.Config.BasicAuthPass)

	args := []string{"clone", "--depth", "1"}
	if n.Config.DefaultBranch != "" {
		args = append(args, "--branch", n.Config.DefaultBranch)
	}
	args = append(args, cloneURL, dest)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("repoanalysis: git clone failed: %w (%s)", err, sanitizeCloneOutput(out, rawURL))
	}
	return nil
}

// sanitizeCloneOutput replaces git's own error output with a fixed
// message whenever it contains both "://" and "@", so a failed clone
// never leaks a token into logs.
func sanitizeCloneOutput(out []byte, plainURL string) string {
	s := string(out)
	if i := strings.Index(s, "@"); i >= 0 && strings.Contains(s, "://") {
		return "git clone error (output redacted to avoid leaking credentials)"
	}
	return strings.TrimSpace(s)
}

func withCredentials(rawURL, token, user, pass string) string {
	if token == "" && user == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	switch {
	case token != "":
		u.User = url.UserPassword("x-access-token", token)
	case user != "":
		u.User = url.UserPassword(user, pass)
	}
	return u.String()
}

func hashURL(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])[:16]
}

func (n *PrepareRepoNode) cacheEntryPath(hash string) string {
	return filepath.Join(n.Config.CacheDir, "repo", hash+".json")
}

func (n *PrepareRepoNode) readCacheEntry(hash string) (RepoCacheEntry, bool) {
	data, err := os.ReadFile(n.cacheEntryPath(hash))
	if err != nil {
		return RepoCacheEntry{}, false
	}
	var entry RepoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return RepoCacheEntry{}, false
	}
	return entry, true
}

func (n *PrepareRepoNode) writeCacheEntry(hash string, entry RepoCacheEntry) error {
	if err := os.MkdirAll(filepath.Join(n.Config.CacheDir, "repo"), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(n.cacheEntryPath(hash), data, 0o644)
}

// acquireLock takes an advisory per-URL lock, realizing spec.md §5's
// "per-URL file lock" requirement. There is no cross-platform flock
// wrapper anywhere in the corpus, so this uses O_EXCL exclusive-create
// as the portable stdlib equivalent, polling briefly rather than
// blocking indefinitely so a stuck lock cannot wedge a whole run.
func (n *PrepareRepoNode) acquireLock(hash string) (func(), error) {
	lockPath := filepath.Join(n.Config.CacheDir, "repo", hash+".lock")
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("repoanalysis: create lock dir: %w", err)
	}

	deadline := time.Now().Add(30 * time.Second)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("repoanalysis: create lock file: %w", err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("repoanalysis: timed out waiting for repo lock %s", hash)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// computeRepoStats walks localPath computing total size, file count, and
// a per-language file-count breakdown, aborting early if MaxRepoSize is
// exceeded, per spec.md §4.4.1's closing sentence.
func computeRepoStats(localPath string, maxSize int64) (RepoStats, error) {
	stats := RepoStats{LanguageBreakdown: make(map[string]int)}

	err := filepath.WalkDir(localPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.TotalSizeBytes += info.Size()
		stats.FileCount++
		if maxSize > 0 && stats.TotalSizeBytes > maxSize {
			return ErrRepoTooLarge
		}
		if lang, ok := codeparse.DetectLanguage(path, nil); ok {
			stats.LanguageBreakdown[lang]++
		}
		return nil
	})
	if err != nil {
		return RepoStats{}, err
	}
	return stats, nil
}

// copyTree recursively copies src to dst, used to hand each run its own
// working copy while the cache tier stays pristine for reuse.
func copyTree(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
