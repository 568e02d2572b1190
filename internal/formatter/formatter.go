// Package formatter runs an external source formatter over generated files.
package formatter

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
)

// DefaultCommand rewrites Go files in place.
const DefaultCommand = "gofmt -w"

// ErrFailed is returned when the formatter exits with a non-zero status.
var ErrFailed = errors.New("formatter failed")

// Exec runs a command line with the file paths appended as arguments.
type Exec struct {
	name string
	args []string
	log  *zap.SugaredLogger
}

// New parses command with shell quoting rules. An empty command selects
// DefaultCommand.
func New(command string, log *zap.SugaredLogger) (*Exec, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing formatter command %q", command)
	}
	if len(words) == 0 {
		return nil, errors.Newf("formatter command %q is empty", command)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Exec{name: words[0], args: words[1:], log: log}, nil
}

// Format runs the command once over all paths. Output on stderr is included
// in the returned error.
func (e *Exec) Format(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append(append([]string(nil), e.args...), paths...)
	cmd := exec.CommandContext(ctx, e.name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.log.Debugw("running formatter", "command", e.name, "files", len(paths))
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return errors.Wrapf(err, "running %s", e.name)
	}
	err = errors.Wrapf(ErrFailed, "%s exited with status %d", e.name, exitErr.ExitCode())
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		err = errors.WithDetail(err, msg)
		err = errors.Wrapf(err, "%s", firstLine(msg))
	}
	return err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
