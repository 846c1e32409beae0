package library

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/bookflow/internal/markdown"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatMarkdown, FormatHTML:
		return f, nil
	case "":
		return FormatText, nil
	case "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

const chapterRule = "----------------------------------------"

// Export renders the whole book. The txt layout is the title, a blank line,
// then every chapter as title, a 40-dash rule, the content and a blank line.
func Export(b Book, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(exportText(b)), nil
	case FormatMarkdown:
		return []byte(exportMarkdown(b)), nil
	case FormatHTML:
		return []byte(markdown.ToPage(b.Title, []byte(exportMarkdown(b)))), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func exportText(b Book) string {
	var sb strings.Builder
	sb.WriteString(b.Title)
	sb.WriteString("\n\n")
	for _, c := range b.Chapters {
		sb.WriteString(c.Title)
		sb.WriteByte('\n')
		sb.WriteString(chapterRule)
		sb.WriteByte('\n')
		sb.WriteString(c.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func exportMarkdown(b Book) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(markdown.EscapeInline(b.Title))
	sb.WriteString("\n\n")
	for _, c := range b.Chapters {
		sb.WriteString("## ")
		sb.WriteString(markdown.EscapeInline(c.Title))
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimSpace(c.Content))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// ExportFileName replaces spaces in the book title with underscores and
// appends the format extension.
func ExportFileName(b Book, f Format) string {
	name := strings.ReplaceAll(b.Title, " ", "_")
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, name)
	return name + "." + string(f)
}
