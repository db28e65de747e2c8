package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"mpd2mp4/internal/services"
)

// Prompter asks a single question and returns the trimmed answer.
type Prompter interface {
	Ask(ctx context.Context, label, placeholder string) (string, error)
}

// New returns a terminal prompter when in and out are both terminals and a
// line prompter otherwise.
func New(in io.Reader, out io.Writer) Prompter {
	if isTerminal(in) && isTerminal(out) {
		return NewTerminalPrompter(in, out)
	}
	return NewLinePrompter(in, out)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// LinePrompter reads answers one line at a time. It is not safe for
// concurrent use.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
	// pending is the read left running by a canceled Ask. The next Ask
	// receives its line instead of starting a second read on in.
	pending chan lineResult
}

// NewLinePrompter builds a prompter over plain streams.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	if out == nil {
		out = io.Discard
	}
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

type lineResult struct {
	line string
	err  error
}

// Ask prints label and waits for a line. End of input counts as an empty
// answer.
func (p *LinePrompter) Ask(ctx context.Context, label, _ string) (string, error) {
	fmt.Fprint(p.out, strings.TrimRight(label, " ")+" ")

	ch := p.pending
	if ch == nil {
		ch = make(chan lineResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		p.pending = ch
		fmt.Fprintln(p.out)
		return "", services.Wrap(services.ErrCanceled, "prompt", "ask", "input canceled", ctx.Err())
	case res := <-ch:
		p.pending = nil
		if res.err != nil && !errors.Is(res.err, io.EOF) {
			return "", services.Wrap(services.ErrInvalidInput, "prompt", "ask", "read input", res.err)
		}
		if errors.Is(res.err, io.EOF) {
			fmt.Fprintln(p.out)
		}
		return strings.TrimSpace(res.line), nil
	}
}
