// Package markdown renders exported books to HTML.
package markdown

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML renders md as an HTML fragment.
func ToHTML(md []byte) string {
	return render(md, html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
}

// ToPage renders md as a complete HTML document with the given title. Raw
// HTML in md is dropped.
func ToPage(title string, md []byte) string {
	return render(md, html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.HrefTargetBlank | html.CompletePage | html.SkipHTML,
	})
}

func render(md []byte, opts html.RendererOptions) string {
	renderer := html.NewRenderer(opts)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Attributes)
	return string(markdown.Render(p.Parse(md), renderer))
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"<", "&lt;",
	">", "&gt;",
)

// EscapeInline escapes text so it renders literally inside a heading or
// paragraph.
func EscapeInline(text string) string {
	return inlineEscaper.Replace(text)
}
