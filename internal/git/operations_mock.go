package git

import "fmt"

// MockGitOps is a mock implementation of Operations for testing.
type MockGitOps struct {
	WorkingDiff      string
	CommitDiffs      map[string]string
	Files            map[string][]byte // keyed by "revision:path" or ":path" for worktree
	WorktreeRoot     string
	HeadRevision     string
	WorkingDiffError error
	CommitDiffError  error
}

// NewMockGitOps creates a mock with sensible defaults.
func NewMockGitOps() *MockGitOps {
	return &MockGitOps{
		CommitDiffs:  map[string]string{},
		Files:        map[string][]byte{},
		WorktreeRoot: "/tmp/test-repo",
		HeadRevision: "abc1234def5678",
	}
}

// AddFile registers file content at a revision. Use an empty revision for
// the working tree.
func (m *MockGitOps) AddFile(revision, filePath string, content []byte) {
	m.Files[revision+":"+filePath] = content
}

func (m *MockGitOps) GetWorkingDiff(repoPath string) (string, error) {
	if m.WorkingDiffError != nil {
		return "", m.WorkingDiffError
	}
	return m.WorkingDiff, nil
}

func (m *MockGitOps) GetCommitDiff(repoPath, commitID string) (string, error) {
	if m.CommitDiffError != nil {
		return "", m.CommitDiffError
	}
	return m.CommitDiffs[commitID], nil
}

func (m *MockGitOps) ReadFile(repoPath, filePath, revision string) ([]byte, error) {
	if content, ok := m.Files[revision+":"+filePath]; ok {
		return content, nil
	}
	return nil, fmt.Errorf("file not found: %s at %q", filePath, revision)
}

func (m *MockGitOps) GetWorktreeRoot(repoPath string) string {
	return m.WorktreeRoot
}

func (m *MockGitOps) GetHeadRevision(repoPath string) string {
	return m.HeadRevision
}

// String returns a human-readable representation of the mock state.
func (m *MockGitOps) String() string {
	return fmt.Sprintf("MockGitOps{root=%s, head=%s, files=%d}",
		m.WorktreeRoot, m.HeadRevision, len(m.Files))
}
