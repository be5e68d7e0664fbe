package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"linkhive/internal/util"

	"golang.org/x/net/html"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultMaxBytes  = 2 << 20 // 2 MiB is plenty for head metadata
	defaultUserAgent = "linkhive/1.0 (+link preview fetcher)"
	maxRedirects     = 5

	// bodyTextBudget caps how much paragraph text we collect for the
	// snippet fallback.
	bodyTextBudget = 4000
)

// ErrNotHTML indicates the URL served something other than an HTML page.
// Retrying will not help.
var ErrNotHTML = errors.New("preview: content is not HTML")

// StatusError reports a non-2xx response from the target site.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("preview: unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Permanent reports whether retrying cannot change the outcome.
func (e *StatusError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// IsPermanent reports whether err is a preview failure that should not
// be retried (non-HTML content, 4xx responses).
func IsPermanent(err error) bool {
	if errors.Is(err, ErrNotHTML) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Permanent()
	}
	return false
}

// Preview holds the metadata extracted for a link card.
type Preview struct {
	Title       *string
	Description *string
	ImageURL    *string
}

// Fetcher retrieves preview metadata for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Preview, error)
}

// HTTPFetcher fetches a page over HTTP and extracts Open Graph,
// Twitter card and plain HTML metadata.
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

type Option func(*HTTPFetcher)

func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) { f.maxBytes = n }
}

func NewHTTPFetcher(timeout time.Duration, opts ...Option) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	f := &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		maxBytes:  defaultMaxBytes,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Preview, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("preview: invalid URL '%s': %w", rawURL, err)
	}
	if pageURL.Scheme != "http" && pageURL.Scheme != "https" {
		return nil, fmt.Errorf("preview: unsupported scheme '%s'", pageURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("preview: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("preview: fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("preview: failed to read response body: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	if !isHTMLContentType(ct) {
		return nil, fmt.Errorf("%w (got %s)", ErrNotHTML, ct)
	}

	// The response URL accounts for redirects when resolving relative
	// image paths.
	base := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	return Parse(string(body), base)
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// pageMeta accumulates candidate values during the single traversal.
type pageMeta struct {
	ogTitle      string
	twitterTitle string
	firstH1      string
	docTitle     string

	ogDesc      string
	twitterDesc string
	metaDesc    string

	ogImage      string
	twitterImage string

	bodyText strings.Builder
}

// Parse extracts preview metadata from an HTML document. base is used
// to resolve relative image URLs and may be nil.
func Parse(htmlBody string, base *url.URL) (*Preview, error) {
	doc, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return nil, fmt.Errorf("preview: failed to parse HTML: %w", err)
	}

	meta := &pageMeta{}
	collectMeta(doc, meta)

	p := &Preview{}
	if title := util.CleanText(firstNonEmpty(meta.ogTitle, meta.twitterTitle, meta.firstH1, meta.docTitle)); title != "" {
		p.Title = &title
	}
	desc := util.CleanText(firstNonEmpty(meta.ogDesc, meta.twitterDesc, meta.metaDesc))
	if desc == "" {
		desc = Snippet(util.CleanText(meta.bodyText.String()))
	}
	if desc != "" {
		p.Description = &desc
	}
	if img := resolveImageURL(firstNonEmpty(meta.ogImage, meta.twitterImage), base); img != "" {
		p.ImageURL = &img
	}
	return p, nil
}

// Tags whose text never belongs in a description snippet.
var ignoreTags = map[string]bool{
	"script": true, "style": true, "nav": true,
	"footer": true, "aside": true, "form": true, "noscript": true,
}

func collectMeta(doc *html.Node, meta *pageMeta) {
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.ElementNode {
			if ignoreTags[n.Data] {
				return
			}
			switch n.Data {
			case "meta":
				recordMetaTag(n, meta)
			case "title":
				if meta.docTitle == "" {
					meta.docTitle = extractText(n)
				}
			case "h1":
				if meta.firstH1 == "" {
					meta.firstH1 = extractText(n)
				}
			case "p":
				if meta.bodyText.Len() < bodyTextBudget {
					if text := extractText(n); text != "" {
						meta.bodyText.WriteString(text)
						meta.bodyText.WriteString(" ")
					}
				}
				return // children already consumed by extractText
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			traverse(child)
		}
	}
	traverse(doc)
}

func recordMetaTag(n *html.Node, meta *pageMeta) {
	content := attr(n, "content")
	if content == "" {
		return
	}
	switch strings.ToLower(attr(n, "property")) {
	case "og:title":
		if meta.ogTitle == "" {
			meta.ogTitle = content
		}
	case "og:description":
		if meta.ogDesc == "" {
			meta.ogDesc = content
		}
	case "og:image":
		if meta.ogImage == "" {
			meta.ogImage = content
		}
	}
	switch strings.ToLower(attr(n, "name")) {
	case "twitter:title":
		if meta.twitterTitle == "" {
			meta.twitterTitle = content
		}
	case "twitter:description":
		if meta.twitterDesc == "" {
			meta.twitterDesc = content
		}
	case "twitter:image":
		if meta.twitterImage == "" {
			meta.twitterImage = content
		}
	case "description":
		if meta.metaDesc == "" {
			meta.metaDesc = content
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// extractText collects the visible text beneath a node.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(strings.ReplaceAll(n.Data, " ", " "))
	}
	if n.Type != html.ElementNode || ignoreTags[n.Data] {
		return ""
	}
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := extractText(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func resolveImageURL(img string, base *url.URL) string {
	img = strings.TrimSpace(img)
	if img == "" {
		return ""
	}
	ref, err := url.Parse(img)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ Fetcher = (*HTTPFetcher)(nil)
