package cli

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

// renderMarkdownANSI renders a commit message body through goldmark and
// flattens the resulting HTML into plain ANSI-friendly text. This is
// deliberately narrow (§4.7): `log --format=doc` is the only call site,
// and only commit messages that look like markdown pay the cost.
func renderMarkdownANSI(message string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(message), &buf); err != nil {
		return "", err
	}
	return htmlToPlain(buf.String()), nil
}

var (
	headingTag = regexp.MustCompile(`(?s)<h[1-6]>(.*?)</h[1-6]>`)
	listItem   = regexp.MustCompile(`(?s)<li>(.*?)</li>`)
	strongTag  = regexp.MustCompile(`(?s)<strong>(.*?)</strong>`)
	emTag      = regexp.MustCompile(`(?s)<em>(.*?)</em>`)
	codeTag    = regexp.MustCompile(`(?s)<code>(.*?)</code>`)
	anyTag     = regexp.MustCompile(`<[^>]+>`)
)

// htmlToPlain turns goldmark's default HTML output into a readable plain
// rendering, since a terminal has no tag renderer of its own.
func htmlToPlain(html string) string {
	out := headingTag.ReplaceAllString(html, "\n== $1 ==\n")
	out = listItem.ReplaceAllString(out, "  - $1\n")
	out = strongTag.ReplaceAllString(out, "*$1*")
	out = emTag.ReplaceAllString(out, "_$1_")
	out = codeTag.ReplaceAllString(out, "`$1`")
	out = anyTag.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// looksLikeMarkdown reports whether a commit message has enough markdown
// structure (heading or list markers) to be worth rendering.
func looksLikeMarkdown(message string) bool {
	for _, line := range strings.Split(message, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			return true
		}
	}
	return false
}
