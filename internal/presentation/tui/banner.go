package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Jarvis ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _                  _     ", "#818cf8"},
		{"     | | __ _ _ ____   _(_)___ ", "#a78bfa"},
		{"  _  | |/ _` | '__\\ \\ / / / __|", "#c084fc"},
		{" | |_| | (_| | |   \\ V /| \\__ \\", "#e879f9"},
		{"  \\___/ \\__,_|_|    \\_/ |_|___/", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
