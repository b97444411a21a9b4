package highlight

import "fmt"

// style is one Vim highlight group translated to ANSI attributes, mirroring
// vim_highlight.c's style_t: a foreground/background colour index (9 means
// "use the terminal default", matching Vim's own convention) plus bold and
// underline flags.
type style struct {
	name      string
	fg        int
	bg        int
	bold      bool
	underline bool
}

const noColour = 9

// sgr renders s as a Select Graphic Rendition escape sequence of the form
// vim_highlight.c emits: "\033[3<fg>;4<bg>[;1][;4]m".
func (s style) sgr() string {
	out := fmt.Sprintf("\033[3%d;4%dm", s.fg, s.bg)
	if s.bold {
		out = fmt.Sprintf("\033[3%d;4%d;1m", s.fg, s.bg)
	}
	if s.underline {
		if s.bold {
			out = fmt.Sprintf("\033[3%d;4%d;1;4m", s.fg, s.bg)
		} else {
			out = fmt.Sprintf("\033[3%d;4%d;4m", s.fg, s.bg)
		}
	}
	return out
}

const resetSGR = "\033[0m"
