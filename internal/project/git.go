// Package project collects information about the repository docgen runs in.
package project

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// GitInfo holds current git state.
type GitInfo struct {
	Branch  string
	Commit  string
	IsDirty bool
}

// CollectGitInfo reads branch, short commit and dirtiness of the repository
// containing dir. If only the status check fails, the branch and commit are
// returned together with the error.
func CollectGitInfo(dir string) (*GitInfo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("getting git HEAD: %w", err)
	}

	info := &GitInfo{Commit: head.Hash().String()[:7]}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	} else {
		info.Branch = "HEAD"
	}

	wt, err := repo.Worktree()
	if err != nil {
		// bare repositories have no worktree to be dirty
		return info, nil
	}
	status, err := wt.Status()
	if err != nil {
		return info, fmt.Errorf("checking git status: %w", err)
	}
	info.IsDirty = !status.IsClean()
	return info, nil
}
