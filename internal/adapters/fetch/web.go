package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// ErrUnsupportedContent is returned for responses that are not HTML.
var ErrUnsupportedContent = errors.New("unsupported content type")

var pageHeader = map[string][]string{
	"Accept": {"text/html,application/xhtml+xml;q=0.9,*/*;q=0.1"},
}

// PageFetcher scrapes the title and description of a web page.
type PageFetcher struct {
	client *Client
}

var _ ports.PageFetcher = (*PageFetcher)(nil)

func NewPageFetcher(client *Client) *PageFetcher {
	return &PageFetcher{client: client}
}

func (f *PageFetcher) FetchPage(ctx context.Context, rawURL string) (domain.URLInfo, error) {
	resp, err := f.client.get(ctx, rawURL, nil, pageHeader)
	if err != nil {
		return domain.URLInfo{}, fmt.Errorf("fetch page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return domain.URLInfo{}, fmt.Errorf("fetch page: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || (mediaType != "text/html" && mediaType != "application/xhtml+xml") {
			return domain.URLInfo{}, fmt.Errorf("fetch page: %w: %s", ErrUnsupportedContent, contentType)
		}
	}

	limit := f.client.config.Current().HTTP.MaxBodyBytes
	body := io.LimitReader(resp.Body, limit)
	decoded, err := charset.NewReader(body, contentType)
	if err != nil {
		return domain.URLInfo{}, fmt.Errorf("decode page: %w", err)
	}

	doc, err := html.Parse(decoded)
	if err != nil {
		return domain.URLInfo{}, fmt.Errorf("parse page: %w", err)
	}

	meta := scrape(doc)
	title := meta.title
	if title == "" {
		title = meta.ogTitle
	}
	if strings.TrimSpace(title) == "" {
		return domain.URLInfo{}, fmt.Errorf("fetch page: %w: no title", domain.ErrNotFound)
	}
	description := meta.description
	if description == "" {
		description = meta.ogDescription
	}

	final := finalURL(resp.Request.URL, rawURL)
	return domain.URLInfo{
		URL:         final.String(),
		Host:        strings.ToLower(final.Hostname()),
		Title:       title,
		Description: description,
	}, nil
}

func finalURL(requested *url.URL, rawURL string) *url.URL {
	if requested != nil {
		return requested
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &url.URL{}
	}
	return parsed
}

type pageMeta struct {
	title         string
	description   string
	ogTitle       string
	ogDescription string
}

func scrape(doc *html.Node) pageMeta {
	var meta pageMeta
	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		if depth > 64 {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "svg", "script", "style", "noscript":
				return
			case "title":
				if meta.title == "" {
					meta.title = textContent(n)
				}
				return
			case "meta":
				readMeta(n, &meta)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth+1)
		}
	}
	walk(doc, 0)
	return meta
}

func readMeta(n *html.Node, meta *pageMeta) {
	content := getAttr(n, "content")
	if content == "" {
		return
	}
	switch {
	case strings.EqualFold(getAttr(n, "name"), "description") && meta.description == "":
		meta.description = content
	case getAttr(n, "property") == "og:title" && meta.ogTitle == "":
		meta.ogTitle = content
	case getAttr(n, "property") == "og:description" && meta.ogDescription == "":
		meta.ogDescription = content
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
