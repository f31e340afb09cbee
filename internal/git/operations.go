package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Operations defines the git operations the graph pipeline depends on.
// This allows mocking git commands in tests.
type Operations interface {
	// GetWorkingDiff returns the unified diff of the working tree
	// (staged and unstaged) against HEAD.
	GetWorkingDiff(repoPath string) (string, error)

	// GetCommitDiff returns the unified diff of a single commit against
	// its first parent.
	GetCommitDiff(repoPath, commitID string) (string, error)

	// ReadFile returns a file's content at the given revision. An empty
	// revision reads from the working tree.
	ReadFile(repoPath, filePath, revision string) ([]byte, error)

	// GetWorktreeRoot returns the git worktree root path.
	// Falls back to repoPath if not a git repository.
	GetWorktreeRoot(repoPath string) string

	// GetHeadRevision returns the current HEAD commit hash, or an empty
	// string if it cannot be determined.
	GetHeadRevision(repoPath string) string
}

// gitOps is the real implementation using exec.Command.
type gitOps struct{}

// NewOperations returns the default git operations implementation.
func NewOperations() Operations {
	return &gitOps{}
}

func (g *gitOps) GetWorkingDiff(repoPath string) (string, error) {
	cmd := exec.Command("git", "diff", "HEAD")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff failed: %w", err)
	}
	return string(output), nil
}

func (g *gitOps) GetCommitDiff(repoPath, commitID string) (string, error) {
	cmd := exec.Command("git", "show", "--format=", "--patch", commitID)
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git show %s failed: %w", commitID, err)
	}
	return string(output), nil
}

func (g *gitOps) ReadFile(repoPath, filePath, revision string) ([]byte, error) {
	if err := validateRepoRelativePath(filePath); err != nil {
		return nil, err
	}

	if revision != "" {
		cmd := exec.Command("git", "show", revision+":"+filePath)
		cmd.Dir = repoPath
		output, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("reading %s at %s: %w", filePath, revision, err)
		}
		return output, nil
	}

	return os.ReadFile(filepath.Join(repoPath, filePath))
}

func (g *gitOps) GetWorktreeRoot(repoPath string) string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		return repoPath
	}
	return strings.TrimSpace(string(output))
}

func (g *gitOps) GetHeadRevision(repoPath string) string {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// validateRepoRelativePath rejects absolute paths and path traversal so a
// diff can never read outside the repository.
func validateRepoRelativePath(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("empty file path")
	}
	if strings.HasPrefix(filePath, "/") || strings.HasPrefix(filePath, "\\") {
		return fmt.Errorf("file path cannot be absolute: %s", filePath)
	}
	for _, part := range strings.Split(filepath.ToSlash(filePath), "/") {
		if part == ".." {
			return fmt.Errorf("file path cannot contain '..': %s", filePath)
		}
	}
	return nil
}
