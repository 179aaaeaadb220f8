// Package describe scrapes a short human readable description from an
// entity's web page.
package describe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	httpClient "github.com/Alias1177/dexsentinel/internal/platform/http"
)

const maxPageBytes = 2 << 20

// Describer fetches pages and extracts their description.
type Describer struct {
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// NewDescriber creates a describer. Page fetches are not retried.
func NewDescriber(timeout time.Duration, requestsPerSec int) *Describer {
	return &Describer{
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        timeout,
			RequestsPerSec: requestsPerSec,
		}),
		logger: log.With().Str("component", "describer").Logger(),
	}
}

// Describe returns the page's meta description, its og:description, or its
// title, in that order of preference. An empty string with a nil error means
// the page has none of them.
func (d *Describer) Describe(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := d.httpClient.DoRequest(ctx, req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	desc, err := Extract(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", url, err)
	}
	d.logger.Debug().Str("url", url).Int("length", len(desc)).Msg("Page described")
	return desc, nil
}

// Extract parses an HTML document and returns its description.
func Extract(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var meta, og, title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				content := attr(n, "content")
				if strings.EqualFold(attr(n, "name"), "description") && meta == "" {
					meta = collapse(content)
				}
				if strings.EqualFold(attr(n, "property"), "og:description") && og == "" {
					og = collapse(content)
				}
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = collapse(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, s := range []string{meta, og, title} {
		if s != "" {
			return s, nil
		}
	}
	return "", nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
