package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
)

// DefaultMavenCommand is the executable run by [Maven].
const DefaultMavenCommand = "mvn"

// stderrTail bounds the output kept in a [CommandError].
const stderrTail = 2048

// CommandError reports a Maven invocation that exited unsuccessfully.
type CommandError struct {
	Args     []string
	ExitCode int
	Output   string // tail of stdout and stderr; mvn -B reports errors on stdout
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed with exit code %d", e.Args[0], e.ExitCode)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Maven runs goals through the mvn command line in batch mode.
type Maven struct {
	command  string
	settings string
	logger   *log.Logger
}

// NewMaven returns a Maven resolver. An empty command selects
// [DefaultMavenCommand]; a non-empty settings path is passed with -s.
func NewMaven(command, settings string, logger *log.Logger) *Maven {
	if command == "" {
		command = DefaultMavenCommand
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Maven{command: command, settings: settings, logger: logger}
}

// CopyArtifact runs dependency:copy for a into outputDir.
func (m *Maven) CopyArtifact(ctx context.Context, a gav.Artifact, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	_, err := m.run(ctx, "dependency:copy", "",
		"artifact="+a.String(),
		"outputDirectory="+outputDir,
	)
	return err
}

// EffectivePOM runs help:effective-pom against pomFile.
func (m *Maven) EffectivePOM(ctx context.Context, pomFile string) ([]string, error) {
	out, err := m.run(ctx, "help:effective-pom", pomFile)
	if err != nil {
		return nil, err
	}
	return SplitLines(out), nil
}

// Args returns the command line for goal, exposed for logging and tests.
func (m *Maven) Args(goal, pom string, props ...string) []string {
	args := []string{m.command, "-B"}
	if m.settings != "" {
		args = append(args, "-s", m.settings)
	}
	if pom != "" {
		args = append(args, "-f", pom)
	}
	args = append(args, goal)
	for _, p := range props {
		args = append(args, "-D"+p)
	}
	return args
}

func (m *Maven) run(ctx context.Context, goal, pom string, props ...string) (string, error) {
	args := m.Args(goal, pom, props...)
	m.logger.Debug("running maven", "args", strings.Join(args[1:], " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		cerr := &CommandError{Args: args, ExitCode: -1, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cerr.ExitCode = exitErr.ExitCode()
		}
		cerr.Output = tail(stdout.String()+stderr.String(), stderrTail)
		return "", cerr
	}
	return stdout.String(), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
