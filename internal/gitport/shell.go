// pattern: Imperative Shell

package gitport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"projectbranch/internal/logging"
)

// DefaultTimeout bounds a single git invocation.
const DefaultTimeout = 10 * time.Second

// Runner executes git with args inside dir and returns trimmed stdout.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

// Shell implements Port and BareChecker by running the git binary.
type Shell struct {
	run    Runner
	logger *logging.ScopedLogger
}

// NewShell creates a Shell port running `git` with the given per-call
// timeout (0 means DefaultTimeout).
func NewShell(timeout time.Duration, logger *logging.ScopedLogger) *Shell {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Shell{run: execRunner("git", timeout, logger), logger: logger}
}

// NewShellWithRunner creates a Shell port with a custom runner (for testing).
func NewShellWithRunner(run Runner) *Shell {
	return &Shell{run: run, logger: logging.NopLogger()}
}

// CurrentBranch returns the checked-out branch; empty on a detached HEAD.
func (s *Shell) CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	return s.run(ctx, repoPath, "branch", "--show-current")
}

// ListBranches returns local branches.
func (s *Shell) ListBranches(ctx context.Context, repoPath string) ([]Branch, error) {
	out, err := s.run(ctx, repoPath, "branch", "--format", branchFormat)
	if err != nil {
		return nil, err
	}
	return ParseBranches(out), nil
}

// SwitchBranch checks out name.
func (s *Shell) SwitchBranch(ctx context.Context, repoPath, name string) error {
	if name == "" || strings.HasPrefix(name, "-") {
		return fmt.Errorf("invalid branch name %q", name)
	}
	_, err := s.run(ctx, repoPath, "checkout", name)
	return err
}

// Remotes returns the fetch remotes.
func (s *Shell) Remotes(ctx context.Context, repoPath string) ([]Remote, error) {
	out, err := s.run(ctx, repoPath, "remote", "-v")
	if err != nil {
		return nil, err
	}
	return ParseRemotes(out), nil
}

// CommonDirectory returns the absolute shared git directory.
func (s *Shell) CommonDirectory(ctx context.Context, repoPath string) (string, error) {
	out, err := s.run(ctx, repoPath, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", err
	}
	return ResolveCommonDir(repoPath, out), nil
}

// IsBareRepository reports whether repoPath is a bare repository.
func (s *Shell) IsBareRepository(ctx context.Context, repoPath string) (bool, error) {
	out, err := s.run(ctx, repoPath, "rev-parse", "--is-bare-repository")
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

// execRunner runs binary as `binary -C dir args...` with a timeout,
// folding stderr into the returned error.
func execRunner(binary string, timeout time.Duration, logger *logging.ScopedLogger) Runner {
	return func(ctx context.Context, dir string, args ...string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		full := append([]string{"-C", dir}, args...)
		logger.Debug("exec", "cmd", binary, "args", full)

		cmd := exec.CommandContext(ctx, binary, full...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("%s %s: timed out after %s", binary, strings.Join(args, " "), timeout)
			}
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return "", fmt.Errorf("%s %s: %s", binary, strings.Join(args, " "), msg)
			}
			return "", fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), err)
		}
		return strings.TrimSpace(stdout.String()), nil
	}
}
