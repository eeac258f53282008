package netmode

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oledclock/oledclock/internal/logging"
)

// commandTimeout caps a single nmcli invocation. nmcli itself waits for the
// join; this is only a guard against a hung binary.
const commandTimeout = 45 * time.Second

// Runner executes a network management command and returns its combined
// output. The production implementation runs nmcli; tests install fakes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args and returns trimmed combined output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	logging.Debug("Running network command",
		zap.String("command", name),
		zap.Strings("args", redactArgs(args)),
	)

	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		if text != "" {
			return text, fmt.Errorf("%s %s: %w: %s", name, args[0], err, text)
		}
		return text, fmt.Errorf("%s %s: %w", name, args[0], err)
	}
	return text, nil
}

// redactArgs hides the value following a "password" argument so WiFi
// credentials never reach the log.
func redactArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "password" {
			out[i+1] = "****"
		}
	}
	return out
}
