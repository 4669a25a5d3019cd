package tui

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	mdCodeBlockRe = regexp.MustCompile(`(?s)<pre><code(?: class="language-([a-zA-Z0-9]+)")?>(.*?)</code></pre>`)
	mdHeadingRe   = regexp.MustCompile(`<h[1-3][^>]*>(.*?)</h[1-3]>`)
	mdStrongRe    = regexp.MustCompile(`<strong>(.*?)</strong>`)
	mdEmRe        = regexp.MustCompile(`<em>(.*?)</em>`)
	mdInlineCode  = regexp.MustCompile(`<code>([^<]+)</code>`)
	mdListItemRe  = regexp.MustCompile(`<li>(.*?)</li>`)
	mdTagRe       = regexp.MustCompile(`<[^>]+>`)
	mdBlankRunsRe = regexp.MustCompile(`\n{3,}`)
)

// ScriptRenderer formats assistant text and generated scripts for the
// terminal: goldmark to HTML, then a small HTML-to-ANSI pass with chroma for
// fenced code.
type ScriptRenderer struct {
	md      goldmark.Markdown
	heading lipgloss.Style
	strong  lipgloss.Style
	em      lipgloss.Style
	code    lipgloss.Style
}

func NewScriptRenderer(theme Theme) *ScriptRenderer {
	return &ScriptRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
		),
		heading: lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		strong:  lipgloss.NewStyle().Bold(true),
		em:      lipgloss.NewStyle().Italic(true),
		code:    lipgloss.NewStyle().Foreground(theme.Warn),
	}
}

// Render converts markdown to styled terminal text wrapped to width.
func (r *ScriptRenderer) Render(source string, width int) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return source
	}
	out := buf.String()

	out = mdCodeBlockRe.ReplaceAllStringFunc(out, func(block string) string {
		parts := mdCodeBlockRe.FindStringSubmatch(block)
		lang, body := parts[1], html.UnescapeString(parts[2])
		return "\n" + r.highlight(strings.TrimRight(body, "\n"), lang) + "\n"
	})
	out = mdHeadingRe.ReplaceAllStringFunc(out, func(h string) string {
		inner := mdHeadingRe.FindStringSubmatch(h)[1]
		return "\n" + r.heading.Render(stripTags(inner)) + "\n"
	})
	out = mdStrongRe.ReplaceAllStringFunc(out, func(s string) string {
		return r.strong.Render(stripTags(mdStrongRe.FindStringSubmatch(s)[1]))
	})
	out = mdEmRe.ReplaceAllStringFunc(out, func(s string) string {
		return r.em.Render(stripTags(mdEmRe.FindStringSubmatch(s)[1]))
	})
	out = mdInlineCode.ReplaceAllStringFunc(out, func(s string) string {
		return r.code.Render(html.UnescapeString(mdInlineCode.FindStringSubmatch(s)[1]))
	})
	out = mdListItemRe.ReplaceAllStringFunc(out, func(s string) string {
		return "  • " + stripTags(mdListItemRe.FindStringSubmatch(s)[1]) + "\n"
	})

	out = stripTags(out)
	out = html.UnescapeString(out)
	out = mdBlankRunsRe.ReplaceAllString(out, "\n\n")
	out = strings.TrimSpace(out)

	if width > 0 {
		out = lipgloss.NewStyle().Width(width).Render(out)
	}
	return out
}

func (r *ScriptRenderer) highlight(code, lang string) string {
	if lang == "" {
		lang = "text"
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, code, lang, "terminal256", "monokai"); err != nil {
		return code
	}
	return buf.String()
}

func stripTags(s string) string {
	return mdTagRe.ReplaceAllString(s, "")
}

// oneLine collapses whitespace for compact single-line summaries.
func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// truncateRunes cuts s to at most maxRunes runes with an ellipsis.
func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	if maxRunes <= 1 {
		return string(r[:maxRunes])
	}
	return fmt.Sprintf("%s…", string(r[:maxRunes-1]))
}
