package highlight

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/smattr/clink/internal/clinkerr"
)

// HTMLCapture is the primary highlighting strategy (§4.4): it puppets a real
// Vim into generating syntax-highlighted HTML via :TOhtml, then decodes that
// HTML back into an ANSI escape stream. This avoids reimplementing any of
// Vim's own highlighting rules: every colouring decision is Vim's, not ours.
// Grounded on libclink/src/vim_highlight.c, whose own header comment
// concedes "this file is essentially insanity" but explains why parsing
// ~/.vimrc directly is an even worse idea.
type HTMLCapture struct {
	// VimPath overrides the "vim" binary looked up on PATH, for testing.
	VimPath string
}

// styleRE mirrors vim_highlight.c's STYLE regex: one CSS rule line of the
// form ".StyleN { color: #rrggbb; background-color: #rrggbb; ... }".
var styleRE = regexp.MustCompile(
	`^\.([[:alpha:]][[:alnum:]]+)[[:blank:]]*` +
		`\{[[:blank:]]*(color:[[:blank:]]*#([[:xdigit:]]{6});[[:blank:]]*)?` +
		`(background-color:[[:blank:]]*#([[:xdigit:]]{6});[[:blank:]]*` +
		`(padding-bottom:[[:blank:]]*1px;[[:blank:]]*)?)?` +
		`(font-weight:[[:blank:]]*bold;[[:blank:]]*)?` +
		`(font-style:[[:blank:]]*italic;[[:blank:]]*)?` +
		`(text-decoration:[[:blank:]]*underline;[[:blank:]]*)?`)

// htmlDecode is the small set of entities 2html.vim is known to emit.
var htmlDecode = []struct {
	key   string
	value byte
}{
	{"amp;", '&'},
	{"gt;", '>'},
	{"lt;", '<'},
	{"nbsp;", ' '},
	{"quot;", '"'},
}

// Highlight runs Vim's :TOhtml over path and returns its contents rendered
// as a stream of lines carrying ANSI SGR escapes instead of HTML spans.
func (h HTMLCapture) Highlight(ctx context.Context, path string) ([]string, error) {
	vim := h.VimPath
	if vim == "" {
		vim = "vim"
	}

	tmpDir, err := os.MkdirTemp("", "clink-highlight-")
	if err != nil {
		return nil, clinkerr.Wrap(clinkerr.IOError, err)
	}
	defer os.RemoveAll(tmpDir)

	out := filepath.Join(tmpDir, "temp.html")
	saveCmd := fmt.Sprintf("+w %s", out)

	cmd := exec.CommandContext(ctx, vim, "-n", "+set nonumber", "+TOhtml", saveCmd, "+qa!", path)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, clinkerr.Errorf(clinkerr.IOError, "vim TOhtml conversion failed: %w (%s)", err, string(output))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, clinkerr.Wrap(clinkerr.IOError, err)
	}

	return decodeTOhtml(data)
}

// decodeTOhtml splits a 2html.vim document into its CSS style table and its
// <pre> body, then renders the body as ANSI-escaped lines.
func decodeTOhtml(data []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var styles []style
	inBody := false
	var lines []string

	for scanner.Scan() {
		line := scanner.Text()

		if !inBody {
			if strings.HasPrefix(line, ".") {
				if m := styleRE.FindStringSubmatch(line); m != nil {
					s := style{name: m[1], fg: noColour, bg: noColour}
					if m[3] != "" {
						s.fg = HTMLColourToANSI(m[3])
					}
					if m[5] != "" {
						s.bg = HTMLColourToANSI(m[5])
					}
					if m[7] != "" {
						s.bold = true
					}
					if m[9] != "" {
						s.underline = true
					}
					styles = append(styles, s)
				}
				continue
			}
			if strings.HasPrefix(line, "<pre") {
				inBody = true
			}
			continue
		}

		if line == "</pre>" {
			break
		}
		decoded, err := decodeHTMLLine(line, styles)
		if err != nil {
			return nil, err
		}
		lines = append(lines, decoded)
	}
	if err := scanner.Err(); err != nil {
		return nil, clinkerr.Wrap(clinkerr.IOError, err)
	}
	return lines, nil
}

// decodeHTMLLine is from_html from vim_highlight.c: it assumes the input
// contains no HTML tags other than <span class="..."> and </span>, and
// decodes entities while translating spans to ANSI SGR sequences.
func decodeHTMLLine(line string, styles []style) (string, error) {
	const spanOpen = `<span class="`
	const spanClose = `</span>`

	var out strings.Builder
	i := 0
	for i < len(line) {
		if line[i] == '&' && i+1 < len(line) {
			translated := false
			for _, t := range htmlDecode {
				if strings.HasPrefix(line[i+1:], t.key) {
					out.WriteByte(t.value)
					i += 1 + len(t.key)
					translated = true
					break
				}
			}
			if translated {
				continue
			}
		} else if line[i] == '<' {
			if strings.HasPrefix(line[i:], spanOpen) {
				start := i + len(spanOpen)
				end := strings.Index(line[start:], `">`)
				if end >= 0 {
					name := line[start : start+end]
					formatted := false
					for _, s := range styles {
						if s.name == name {
							out.WriteString(s.sgr())
							i = start + end + 2
							formatted = true
							break
						}
					}
					if formatted {
						continue
					}
				}
			} else if strings.HasPrefix(line[i:], spanClose) {
				out.WriteString(resetSGR)
				i += len(spanClose)
				continue
			}
		}
		out.WriteByte(line[i])
		i++
	}
	return out.String(), nil
}
