package html

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/normalisers/common"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML document to readable text.
// The <title> element becomes the document title.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	title, content, err := extractText(raw.Content)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = common.Title(raw)
	}

	doc := common.NewDocument(raw, title, content, "html")
	return &driven.NormaliseResult{Documents: []domain.Document{doc}}, nil
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
}

// block elements end a line of text.
var block = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Ul: true, atom.Ol: true, atom.Dt: true, atom.Dd: true,
}

// paragraph elements are separated by a blank line.
var paragraph = map[atom.Atom]bool{
	atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true, atom.Section: true, atom.Article: true,
}

// extractText tokenises HTML and returns the title and body text.
func extractText(content []byte) (title, text string, err error) {
	z := html.NewTokenizer(bytes.NewReader(content))

	var (
		out      textBuffer
		titleBuf strings.Builder
		skip     int
		inTitle  bool
	)

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return collapseSpaces(titleBuf.String()), out.String(), nil
			}
			return "", "", domain.ErrInvalidInput

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Title:
				inTitle = tt == html.StartTagToken
			case skipped[a] && tt == html.StartTagToken:
				skip++
			case block[a]:
				out.lineBreak(1)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Title:
				inTitle = false
			case skipped[a] && skip > 0:
				skip--
			case paragraph[a]:
				out.lineBreak(2)
			case block[a]:
				out.lineBreak(1)
			}

		case html.TextToken:
			switch {
			case inTitle:
				titleBuf.Write(z.Text())
			case skip == 0:
				out.text(z.Text())
			}
		}
	}
}

// textBuffer accumulates text where source whitespace is insignificant and
// only element structure produces line breaks.
type textBuffer struct {
	b []byte
}

func (t *textBuffer) text(p []byte) {
	for _, c := range p {
		switch c {
		case '\n', '\r', '\t', '\f':
			c = ' '
		}
		t.b = append(t.b, c)
	}
}

// lineBreak ensures the buffer ends with n newlines. Leading breaks are dropped.
func (t *textBuffer) lineBreak(n int) {
	t.b = bytes.TrimRight(t.b, " ")
	if len(t.b) == 0 {
		return
	}
	have := len(t.b) - len(bytes.TrimRight(t.b, "\n"))
	for ; have < n; have++ {
		t.b = append(t.b, '\n')
	}
}

// String returns the text with spaces collapsed on each line.
func (t *textBuffer) String() string {
	lines := strings.Split(string(t.b), "\n")
	for i, line := range lines {
		lines[i] = collapseSpaces(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// collapseSpaces folds runs of whitespace into single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
