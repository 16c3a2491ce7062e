package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal asks questions on a line based terminal, secret answers are read
// without echo when the input is a tty.
type Terminal struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:     in,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (t *Terminal) ttyFd() (int, bool) {
	f, ok := t.in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

type readResult struct {
	line string
	err  error
}

func (t *Terminal) readLine(ctx context.Context, secret bool) (string, error) {
	done := make(chan readResult, 1)
	go func() {
		if fd, tty := t.ttyFd(); secret && tty {
			line, err := term.ReadPassword(fd)
			fmt.Fprintln(t.out)
			done <- readResult{line: string(line), err: err}
			return
		}
		line, err := t.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		done <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		// stdin reads cannot be interrupted, the goroutine stays blocked
		// until the process exits
		return "", ctx.Err()
	case res := <-done:
		if errors.Is(res.err, io.EOF) {
			return "", ErrCanceled
		}
		return strings.TrimSpace(res.line), res.err
	}
}

func (t *Terminal) Ask(ctx context.Context, q Question) (string, error) {
	switch {
	case q.Default != "" && q.Secret:
		fmt.Fprintf(t.out, "%s [saved]: ", q.Label)
	case q.Default != "":
		fmt.Fprintf(t.out, "%s [%s]: ", q.Label, q.Default)
	default:
		fmt.Fprintf(t.out, "%s: ", q.Label)
	}

	answer, err := t.readLine(ctx, q.Secret)
	if err != nil {
		return "", err
	}
	if answer == "" {
		answer = q.Default
	}
	if answer == "" {
		return "", ErrCanceled
	}
	return answer, nil
}
