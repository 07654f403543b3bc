package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"marginalia/internal/config"
	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
)

// WebpageExtractor handles webpage sources. The page is reduced to its
// readable article, sanitized, and flattened to plain text; headings
// become structural markers anchored at their rune offset in that text.
type WebpageExtractor struct {
	client   *http.Client
	sanitize *bluemonday.Policy
}

// NewWebpageExtractor creates a webpage extractor with a bounded HTTP
// client and a UGC sanitization policy.
func NewWebpageExtractor() *WebpageExtractor {
	return &WebpageExtractor{
		client: &http.Client{
			Timeout: config.FetchTimeoutSeconds * time.Second,
		},
		sanitize: bluemonday.UGCPolicy(),
	}
}

func (e *WebpageExtractor) Extract(ctx context.Context, doc *models.Document) (*models.ExtractionResult, error) {
	rawHTML, pageURL, err := e.source(ctx, doc)
	if err != nil {
		return nil, &domain.ExtractionError{ContentType: models.ContentTypeWebpage, Err: err}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return nil, &domain.ExtractionError{ContentType: models.ContentTypeWebpage, Err: fmt.Errorf("extract article: %w", err)}
	}

	clean := e.sanitize.Sanitize(article.Content)
	root, err := html.Parse(strings.NewReader(clean))
	if err != nil {
		return nil, &domain.ExtractionError{ContentType: models.ContentTypeWebpage, Err: fmt.Errorf("parse article html: %w", err)}
	}

	var w textWalker
	w.walk(root)
	text := strings.TrimRight(w.text.String(), "\n")
	if strings.TrimSpace(text) == "" {
		return nil, &domain.ExtractionError{ContentType: models.ContentTypeWebpage, Err: fmt.Errorf("no extractable text")}
	}

	markers := w.markers
	if len(markers) == 0 && strings.TrimSpace(article.Title) != "" {
		markers = []models.StructuralMarker{{Title: article.Title, Level: 1, Offset: 0}}
	}

	return &models.ExtractionResult{
		Text:           text,
		PageBoundaries: paginate(len([]rune(text)), config.TextPageSize),
		Markers:        markers,
	}, nil
}

// source returns the HTML to extract from plus the URL used for link
// resolution. Inline content wins; otherwise the URL is fetched.
func (e *WebpageExtractor) source(ctx context.Context, doc *models.Document) (string, *url.URL, error) {
	var pageURL *url.URL
	if doc.URL != nil && *doc.URL != "" {
		u, err := url.Parse(*doc.URL)
		if err != nil {
			return "", nil, fmt.Errorf("parse url: %w", err)
		}
		pageURL = u
	} else {
		pageURL = &url.URL{}
	}

	if doc.Content != nil && *doc.Content != "" {
		return *doc.Content, pageURL, nil
	}
	if pageURL.Host == "" {
		return "", nil, fmt.Errorf("document has neither content nor url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return "", nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read page body: %w", err)
	}
	return string(body), pageURL, nil
}

// textWalker flattens an HTML tree into plain text while tracking the
// rune offset of every heading it passes. Block elements terminate the
// current line so offsets stay stable regardless of source formatting.
type textWalker struct {
	text    strings.Builder
	runeLen int64
	markers []models.StructuralMarker
	pending bool
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"ul": true, "ol": true, "li": true, "table": true, "tr": true,
	"blockquote": true, "pre": true, "br": true, "hr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func (w *textWalker) walk(n *html.Node) {
	if n.Type == html.ElementNode && headingLevel(n.Data) > 0 {
		w.flushLine()
		title := strings.TrimSpace(collectText(n))
		if title != "" {
			w.markers = append(w.markers, models.StructuralMarker{
				Title:  title,
				Level:  headingLevel(n.Data),
				Offset: int(w.runeLen),
			})
		}
	}

	switch n.Type {
	case html.TextNode:
		w.writeText(n.Data)
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}

	if n.Type == html.ElementNode && blockTags[n.Data] {
		w.flushLine()
	}
}

// writeText appends collapsed whitespace text, separating fragments
// within a line by a single space.
func (w *textWalker) writeText(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return
	}
	if w.pending {
		w.text.WriteByte(' ')
		w.runeLen++
	}
	for i, f := range fields {
		if i > 0 {
			w.text.WriteByte(' ')
			w.runeLen++
		}
		w.text.WriteString(f)
		w.runeLen += int64(len([]rune(f)))
	}
	w.pending = true
}

func (w *textWalker) flushLine() {
	if !w.pending {
		return
	}
	w.text.WriteByte('\n')
	w.runeLen++
	w.pending = false
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
