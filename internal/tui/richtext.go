package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
)

// tagDepth counts the open emphasis tags while tokenizing.
type tagDepth struct {
	bold   int
	italic int
	code   int
}

func (d *tagDepth) open(name string) {
	switch name {
	case "b", "strong":
		d.bold++
	case "i", "em":
		d.italic++
	case "code":
		d.code++
	}
}

func (d *tagDepth) close(name string) {
	switch name {
	case "b", "strong":
		d.bold = max(d.bold-1, 0)
	case "i", "em":
		d.italic = max(d.italic-1, 0)
	case "code":
		d.code = max(d.code-1, 0)
	}
}

type emphasis struct {
	bold   bool
	italic bool
	code   bool
}

func (e emphasis) style(base lipgloss.Style) lipgloss.Style {
	s := base
	if e.code {
		s = codeStyle
	}
	if e.bold {
		s = s.Bold(true)
	}
	if e.italic {
		s = s.Italic(true)
	}
	return s
}

// richRunes styles authored rich text. It understands b, strong, i, em,
// code and br tags plus **bold**, *italic* and `code` inline markers.
// Other tags are dropped and their text kept.
func richRunes(text string, base lipgloss.Style) []styledRune {
	var (
		out   []styledRune
		depth tagDepth
	)
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.TextToken:
			tags := emphasis{bold: depth.bold > 0, italic: depth.italic > 0, code: depth.code > 0}
			out = appendInline(out, []rune(string(z.Text())), base, tags)
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				out = append(out, lineBreak)
				continue
			}
			depth.open(string(name))
		case html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				out = append(out, lineBreak)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			depth.close(string(name))
		}
	}
}

// appendInline applies the inline markers of runes on top of tags. Inside a
// code tag the text is literal.
func appendInline(out []styledRune, runes []rune, base lipgloss.Style, tags emphasis) []styledRune {
	var marks emphasis
	for i := 0; i < len(runes); {
		r := runes[i]
		if !tags.code {
			switch {
			case r == '`' && (marks.code || indexRune(runes[i+1:], '`') >= 0):
				marks.code = !marks.code
				i++
				continue
			case r == '*' && !marks.code:
				n := starRun(runes, i)
				active := (n == 2 && marks.bold) || (n == 1 && marks.italic)
				if (active && closesAt(runes, i, n)) || (!active && opensAt(runes, i, n) && findCloser(runes, i+n, n) >= 0) {
					if n == 2 {
						marks.bold = !marks.bold
					} else {
						marks.italic = !marks.italic
					}
					i += n
					continue
				}
			}
		}
		if r == '\n' {
			out = append(out, lineBreak)
			i++
			continue
		}
		merged := emphasis{
			bold:   tags.bold || marks.bold,
			italic: tags.italic || marks.italic,
			code:   tags.code || marks.code,
		}
		out = append(out, newStyledRune(r, merged.style(base)))
		i++
	}
	return out
}

// starRun returns 2 when runes[i:] starts with "**", else 1.
func starRun(runes []rune, i int) int {
	if i+1 < len(runes) && runes[i+1] == '*' {
		return 2
	}
	return 1
}

func opensAt(runes []rune, i, n int) bool {
	if i+n >= len(runes) || unicode.IsSpace(runes[i+n]) {
		return false
	}
	return i == 0 || !isWordRune(runes[i-1])
}

func closesAt(runes []rune, i, n int) bool {
	if i == 0 || unicode.IsSpace(runes[i-1]) {
		return false
	}
	return i+n >= len(runes) || !isWordRune(runes[i+n])
}

func findCloser(runes []rune, from, n int) int {
	for j := from; j < len(runes); j++ {
		if runes[j] != '*' {
			continue
		}
		run := starRun(runes, j)
		if run == n && closesAt(runes, j, n) {
			return j
		}
		if run == 2 {
			j++
		}
	}
	return -1
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func indexRune(runes []rune, target rune) int {
	for i, r := range runes {
		if r == target {
			return i
		}
	}
	return -1
}

// renderRich styles and wraps text to width.
func renderRich(text string, base lipgloss.Style, width int) string {
	return wrapStyledRunes(richRunes(text, base), width)
}
