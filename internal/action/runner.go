package action

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner abstracts external action execution for testability.
type Runner interface {
	Run(ctx context.Context, command string) (stdout string, stderr string, exitCode int, err error)
}

// ExecRunner implements Runner by shelling out.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, command string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return stdoutBuf.String(), stderrBuf.String(), -1, fmt.Errorf("exec: %w", err)
		}
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// ExpandCommand resolves a catalog command template into a runnable command:
// the {month} placeholder is substituted, a relative program path is rooted in
// actionsDir, and the dry-run flag is appended when requested. Every external
// action accepts the target month as a positional argument and signals
// success via exit status.
func ExpandCommand(template, actionsDir, month string, dryRun bool) string {
	cmd := strings.ReplaceAll(template, "{month}", month)
	fields := strings.Fields(cmd)
	if len(fields) > 0 && !filepath.IsAbs(fields[0]) && actionsDir != "" {
		fields[0] = filepath.Join(actionsDir, fields[0])
		cmd = strings.Join(fields, " ")
	}
	if dryRun {
		cmd += " --dry-run"
	}
	return cmd
}
