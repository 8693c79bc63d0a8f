package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// PrintBanner writes the stepwise banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"      _                       _          ", "#818cf8"},
		{"  ___| |_ ___ _ ____      __ (_)___  ___ ", "#a78bfa"},
		{" / __| __/ _ \\ '_ \\ \\ /\\ / / | / __|/ _ \\", "#c084fc"},
		{" \\__ \\ ||  __/ |_) \\ V  V /  | \\__ \\  __/", "#e879f9"},
		{" |___/\\__\\___| .__/ \\_/\\_/   |_|___/\\___|", "#f472b6"},
		{"             |_|                         ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  plan, then act, one step at a time  v"+version).Faint())
	fmt.Fprintln(w)
}
