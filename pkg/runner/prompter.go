package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultInputBufferSize is the number of lines read ahead of the prompts.
const DefaultInputBufferSize = 64

// ErrInputClosed is returned when the input stream ends before an answer.
var ErrInputClosed = errors.New("input closed")

// Prompter asks the user questions.
type Prompter interface {
	// Select shows options and returns the chosen index. def is the index
	// used when the answer is empty.
	Select(ctx context.Context, label string, options []string, def int) (int, error)

	// Input asks for free text; an empty answer yields def.
	Input(ctx context.Context, label, def string) (string, error)

	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, label string, def bool) (bool, error)
}

// TextPrompter implements Prompter over line-oriented text IO.
type TextPrompter struct {
	reader *bufio.Reader
	Writer io.Writer

	lines     chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

var _ Prompter = (*TextPrompter)(nil)

// NewTextPrompter reads answers from r and writes prompts to w
// (stdin and stdout when nil).
func NewTextPrompter(r io.Reader, w io.Writer) *TextPrompter {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &TextPrompter{
		reader: bufio.NewReader(r),
		Writer: w,
	}
}

// pump reads lines in the background so a blocked read never prevents
// cancellation from being observed.
func (p *TextPrompter) pump() {
	defer close(p.lines)
	for {
		text, err := p.reader.ReadString('\n')
		if text != "" {
			p.lines <- inputResult{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.lines <- inputResult{err: err}
			}
			return
		}
	}
}

func (p *TextPrompter) readLine(ctx context.Context) (string, error) {
	p.startOnce.Do(func() {
		p.lines = make(chan inputResult, DefaultInputBufferSize)
		go p.pump()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-p.lines:
		if !ok {
			return "", ErrInputClosed
		}
		if res.err != nil {
			return "", res.err
		}
		return SanitizeInput(strings.TrimSpace(res.text))
	}
}

// Input implements Prompter.
func (p *TextPrompter) Input(ctx context.Context, label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.Writer, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.Writer, "%s: ", label)
	}
	text, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	if text == "" {
		return def, nil
	}
	return text, nil
}

// Select implements Prompter. Options may be chosen by number or by name.
func (p *TextPrompter) Select(ctx context.Context, label string, options []string, def int) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("select: no options")
	}
	fmt.Fprintln(p.Writer, label)
	for i, o := range options {
		marker := " "
		if i == def {
			marker = "*"
		}
		fmt.Fprintf(p.Writer, " %s %d) %s\n", marker, i+1, o)
	}

	for {
		text, err := p.Input(ctx, "Choice", strconv.Itoa(def+1))
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		for i, o := range options {
			if strings.EqualFold(text, o) {
				return i, nil
			}
		}
		fmt.Fprintf(p.Writer, "Please choose 1-%d.\n", len(options))
	}
}

// Confirm implements Prompter.
func (p *TextPrompter) Confirm(ctx context.Context, label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.Writer, "%s [%s]: ", label, hint)
		text, err := p.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(text) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.Writer, "Please answer y or n.")
	}
}
