package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"mpd2mp4/internal/logging"
	"mpd2mp4/internal/services"
)

// protocolWhitelist lets a local manifest reference local segments as well
// as remote ones.
const protocolWhitelist = "file,http,https,tcp,tls,crypto"

const defaultTailLines = 20

// Executor abstracts command execution for testability. Every output line
// from stdout and stderr is passed to onLine.
type Executor interface {
	Run(ctx context.Context, dir, binary string, args []string, onLine func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithOutput streams FFmpeg's combined output to fn as it arrives.
func WithOutput(fn func(string)) Option {
	return func(c *Client) {
		c.onLine = fn
	}
}

// WithLogger sets the logger used for command diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "ffmpeg")
	}
}

// Client wraps FFmpeg remux invocations.
type Client struct {
	binary string
	exec   Executor
	onLine func(string)
	logger *slog.Logger
}

// New constructs an FFmpeg client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrExternalToolMissing, "ffmpeg", "init", "FFmpeg binary required", nil)
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
		logger: logging.NewComponentLogger(nil, "ffmpeg"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the FFmpeg executable the client runs.
func (c *Client) Binary() string { return c.binary }

// RemuxArgs builds the stream-copy argument list. The manifest is referenced
// by name because FFmpeg runs from the manifest's directory so relative
// segment paths resolve.
func RemuxArgs(manifestName, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-protocol_whitelist", protocolWhitelist,
		"-i", manifestName,
		"-c", "copy",
		"-y",
		outputPath,
	}
}

// Remux stream-copies the manifest at manifestPath into outputPath.
func (c *Client) Remux(ctx context.Context, manifestPath, outputPath string) error {
	if strings.TrimSpace(manifestPath) == "" || strings.TrimSpace(outputPath) == "" {
		return services.Wrap(services.ErrInvalidInput, "ffmpeg", "remux", "manifest and output paths required", nil)
	}
	absOutput, err := filepath.Abs(outputPath)
	if err != nil {
		return services.Wrap(services.ErrOutputWrite, "ffmpeg", "remux", "resolve output path", err)
	}
	dir := filepath.Dir(manifestPath)
	args := RemuxArgs(filepath.Base(manifestPath), absOutput)

	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("running ffmpeg",
		logging.String("dir", dir),
		logging.String("command", c.binary+" "+strings.Join(args, " ")),
	)

	tail := newTailBuffer(defaultTailLines)
	runErr := c.exec.Run(ctx, dir, c.binary, args, func(line string) {
		tail.Add(line)
		if c.onLine != nil {
			c.onLine(line)
		}
	})
	if runErr == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return services.Wrap(services.ErrCanceled, "ffmpeg", "remux", "interrupted", ctxErr)
	}

	message := "FFmpeg failed"
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		message = fmt.Sprintf("FFmpeg failed with return code %d", exitErr.ExitCode())
	}
	logger.Error("ffmpeg remux failed", logging.Error(runErr))
	return services.WithDiagnostic(
		services.Wrap(services.ErrExternalToolFailure, "ffmpeg", "remux", message, runErr),
		tail.String(),
	)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, dir, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Dir = dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onLine == nil {
				continue
			}
			mu.Lock()
			onLine(scanner.Text())
			mu.Unlock()
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

// tailBuffer keeps the last n lines written to it.
type tailBuffer struct {
	lines []string
	max   int
}

func newTailBuffer(n int) *tailBuffer {
	return &tailBuffer{max: n}
}

func (t *tailBuffer) Add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tailBuffer) String() string {
	return strings.Join(t.lines, "\n")
}
