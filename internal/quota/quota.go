// Package quota reports remaining cloud photo storage, the external
// constraint gating retryable transitions.
package quota

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"media-organizer/internal/action"
)

// Unlimited is returned when the remote account reports no storage cap.
const Unlimited int64 = -1

// Checker reports how many bytes of remote storage remain available.
type Checker interface {
	AvailableBytes(ctx context.Context) (int64, error)
}

// CommandChecker shells out to a configured command that prints the available
// byte count (or the word "unlimited") on stdout.
type CommandChecker struct {
	Command string
	Runner  action.Runner
}

func (c *CommandChecker) AvailableBytes(ctx context.Context) (int64, error) {
	stdout, stderr, exitCode, err := c.Runner.Run(ctx, c.Command)
	if err != nil {
		return 0, fmt.Errorf("quota command: %w", err)
	}
	if exitCode != 0 {
		return 0, fmt.Errorf("quota command exited %d: %s", exitCode, strings.TrimSpace(stderr))
	}

	out := strings.TrimSpace(stdout)
	if strings.EqualFold(out, "unlimited") || strings.EqualFold(out, "unknown") {
		return Unlimited, nil
	}
	n, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("quota command output %q is not a byte count: %w", out, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("quota command reported negative bytes: %d", n)
	}
	return n, nil
}
