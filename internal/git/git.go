// Package git wraps the git operations agentssh needs: per-agent worktrees
// and cloning a repository to launch an agent in.
package git

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/agentssh/agentssh/internal/logging"
)

var gitLog = logging.ForComponent(logging.CompGit)

// WorktreeDir is where agent worktrees live, relative to the repo root.
const WorktreeDir = ".agentssh/worktrees"

// BranchPrefix names the branch each worktree checks out.
const BranchPrefix = "agentssh/"

// Worktree represents a git worktree
type Worktree struct {
	Path   string
	Branch string
	Commit string
	Bare   bool
}

func run(args ...string) (string, error) {
	out, err := exec.Command("git", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsGitRepo checks if the given directory is inside a git repository
func IsGitRepo(dir string) bool {
	return exec.Command("git", "-C", dir, "rev-parse", "--git-dir").Run() == nil
}

// GetRepoRoot returns the top-level directory of the checkout containing dir.
func GetRepoRoot(dir string) (string, error) {
	out, err := run("-C", dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return out, nil
}

// BranchExists checks if a local branch exists in the repository
func BranchExists(repoDir, branch string) bool {
	return exec.Command("git", "-C", repoDir, "show-ref", "--verify", "--quiet", "refs/heads/"+branch).Run() == nil
}

// ValidateBranchName applies the subset of git's ref rules that generated
// names can violate.
func ValidateBranchName(name string) error {
	switch {
	case name == "":
		return errors.New("branch name cannot be empty")
	case strings.TrimSpace(name) != name:
		return errors.New("branch name cannot have leading or trailing spaces")
	case strings.Contains(name, ".."):
		return errors.New("branch name cannot contain '..'")
	case strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, "/"):
		return fmt.Errorf("invalid branch name %q", name)
	case strings.ContainsAny(name, " ~^:?*[\\"):
		return fmt.Errorf("branch name %q contains invalid characters", name)
	}
	return nil
}

// CreateWorktree adds <repo root>/.agentssh/worktrees/<id> on a new branch
// agentssh/<id> and returns its path.
func CreateWorktree(repoDir, id string) (string, error) {
	root, err := GetRepoRoot(repoDir)
	if err != nil {
		return "", err
	}
	branch := BranchPrefix + id
	if err := ValidateBranchName(branch); err != nil {
		return "", fmt.Errorf("invalid branch name: %w", err)
	}
	if BranchExists(root, branch) {
		return "", fmt.Errorf("branch %s already exists", branch)
	}

	path := filepath.Join(root, WorktreeDir, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create worktree parent: %w", err)
	}
	if _, err := run("-C", root, "worktree", "add", "-b", branch, path); err != nil {
		return "", fmt.Errorf("failed to create worktree: %w", err)
	}
	gitLog.Info("worktree_created", slog.String("path", path), slog.String("branch", branch))
	return path, nil
}

// IsWorktreePath reports whether path lies inside an agentssh worktree.
func IsWorktreePath(path string) bool {
	return strings.Contains(filepath.ToSlash(path)+"/", "/"+WorktreeDir+"/")
}

// worktreeRoot returns the agentssh worktree directory that contains path,
// e.g. /repo/.agentssh/worktrees/123 for /repo/.agentssh/worktrees/123/src.
func worktreeRoot(path string) (string, bool) {
	marker := "/" + WorktreeDir + "/"
	slashed := filepath.ToSlash(filepath.Clean(path)) + "/"
	i := strings.Index(slashed, marker)
	if i < 0 {
		return "", false
	}
	rest := slashed[i+len(marker):]
	id, _, _ := strings.Cut(rest, "/")
	if id == "" {
		return "", false
	}
	return filepath.FromSlash(slashed[:i+len(marker)] + id), true
}

// ListWorktrees returns all worktrees for the repository at repoDir, main
// checkout first.
func ListWorktrees(repoDir string) ([]Worktree, error) {
	out, err := run("-C", repoDir, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to list worktrees: %w", err)
	}
	return parseWorktreeList(out), nil
}

func parseWorktreeList(output string) []Worktree {
	var list []Worktree
	var cur Worktree
	flush := func() {
		if cur.Path != "" {
			list = append(list, cur)
		}
		cur = Worktree{}
	}

	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "worktree "):
			cur.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			cur.Commit = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "bare":
			cur.Bare = true
		}
	}
	flush()
	return list
}

// RemoveWorktree tears down an agent worktree: it unregisters it from the
// main checkout, deletes the directory if git left it behind, and deletes the
// agentssh/<id> branch. Only a directory that is still present afterwards is
// reported as an error.
func RemoveWorktree(path string) error {
	wt, ok := worktreeRoot(path)
	if !ok {
		return fmt.Errorf("%s is not an agentssh worktree", path)
	}
	id := filepath.Base(wt)

	var mainRoot string
	if list, err := ListWorktrees(wt); err == nil && len(list) > 0 {
		mainRoot = list[0].Path
	} else {
		// <root>/.agentssh/worktrees/<id>
		mainRoot = filepath.Dir(filepath.Dir(filepath.Dir(wt)))
	}

	if _, err := run("-C", mainRoot, "worktree", "remove", "--force", wt); err != nil {
		gitLog.Warn("worktree_remove_failed", slog.String("path", wt), slog.String("error", err.Error()))
	}
	if _, err := os.Stat(wt); err == nil {
		if err := os.RemoveAll(wt); err != nil {
			return fmt.Errorf("failed to remove worktree directory: %w", err)
		}
		_, _ = run("-C", mainRoot, "worktree", "prune")
	}
	if err := DeleteBranch(mainRoot, BranchPrefix+id, true); err != nil {
		gitLog.Debug("worktree_branch_delete_failed", slog.String("branch", BranchPrefix+id), slog.String("error", err.Error()))
	}
	gitLog.Info("worktree_removed", slog.String("path", wt))
	return nil
}

// DeleteBranch deletes a local branch. If force is true, uses -D.
func DeleteBranch(repoDir, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if _, err := run("-C", repoDir, "branch", flag, branch); err != nil {
		return fmt.Errorf("failed to delete branch: %w", err)
	}
	return nil
}

// ParseRepoName derives the checkout directory name from a clone URL:
// the last path segment without a trailing ".git".
func ParseRepoName(url string) (string, error) {
	u := strings.TrimRight(strings.TrimSpace(url), "/")
	if i := strings.LastIndexAny(u, "/:"); i >= 0 {
		u = u[i+1:]
	}
	name := strings.TrimSuffix(u, ".git")
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("cannot derive repository name from %q", url)
	}
	return name, nil
}

// CloneRepo clones url into destDir/<repo name> and returns the new path.
func CloneRepo(url, destDir string) (string, error) {
	name, err := ParseRepoName(url)
	if err != nil {
		return "", err
	}
	target := filepath.Join(destDir, name)
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("%s already exists", target)
	}
	if _, err := run("clone", "--", strings.TrimSpace(url), target); err != nil {
		return "", fmt.Errorf("git clone failed: %w", err)
	}
	gitLog.Info("repo_cloned", slog.String("url", url), slog.String("path", target))
	return target, nil
}
