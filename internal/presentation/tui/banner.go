package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the courier banner to w, coloured when the terminal supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{`   ___ ___  _   _ _ __(_) ___ _ __ `, "#38bdf8"},
		{`  / __/ _ \| | | | '__| |/ _ \ '__|`, "#22d3ee"},
		{` | (_| (_) | |_| | |  | |  __/ |   `, "#2dd4bf"},
		{`  \___\___/ \__,_|_|  |_|\___|_|   `, "#34d399"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version+"  type exit to quit, /clear to forget, /history to review").Faint())
	fmt.Fprintln(w)
}
