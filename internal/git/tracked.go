// Package git enumerates files under version control and describes the
// repository a scan ran in. It reads the repository through go-git and never
// shells out.
package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when root is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// validateRoot validates and normalizes a repository root path.
func validateRoot(root string) (string, error) {
	if strings.ContainsRune(root, 0) {
		return "", fmt.Errorf("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}
	return abs, nil
}

func open(root string) (*gogit.Repository, string, error) {
	abs, err := validateRoot(root)
	if err != nil {
		return nil, "", err
	}
	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, "", fmt.Errorf("%s: %w", root, ErrNotRepository)
		}
		return nil, "", err
	}
	return repo, abs, nil
}

// TrackedFiles lists the files in the index that lie under root, as
// slash-separated paths relative to root, sorted.
func TrackedFiles(root string) ([]string, error) {
	repo, abs, err := open(root)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	top, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	prefix, err := filepath.Rel(top, abs)
	if err != nil {
		return nil, err
	}
	prefix = filepath.ToSlash(prefix)
	if prefix == "." {
		prefix = ""
	} else {
		prefix += "/"
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		if !strings.HasPrefix(e.Name, prefix) {
			continue
		}
		out = append(out, strings.TrimPrefix(e.Name, prefix))
	}
	sort.Strings(out)
	return out, nil
}

// RepoMetadata returns (repo, commit, branch) best-effort for the given root.
// Empty strings are returned for anything that cannot be determined.
func RepoMetadata(root string) (string, string, string) {
	repo, _, err := open(root)
	if err != nil {
		return "", "", ""
	}
	name := ""
	if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		s := strings.TrimSuffix(remote.Config().URLs[0], ".git")
		if i := strings.LastIndex(s, ":"); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.Index(s, "github.com/"); i >= 0 {
			s = s[i+len("github.com/"):]
		}
		name = strings.TrimPrefix(s, "//")
	}
	commit, branch := "", ""
	if head, err := repo.Head(); err == nil {
		commit = head.Hash().String()
		if head.Name().IsBranch() {
			branch = head.Name().Short()
		} else {
			branch = "HEAD"
		}
	}
	return name, commit, branch
}
