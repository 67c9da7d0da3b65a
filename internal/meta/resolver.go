package meta

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// bodyLimit caps how much of a response we are willing to parse for a
// title and description.
const bodyLimit = 512 * 1024

type HTTPResolver struct {
	client *resty.Client
	logger *zap.SugaredLogger
}

// NewHTTPResolver builds a resolver that performs exactly one bounded GET
// per URL. No retries: a slow or dead host degrades to empty metadata at
// the call site, it never blocks a request past the timeout.
func NewHTTPResolver(timeout time.Duration, logger *zap.SugaredLogger) *HTTPResolver {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return &HTTPResolver{
		client: client,
		logger: logger,
	}
}

func (r *HTTPResolver) Resolve(ctx context.Context, url string) (Metadata, error) {
	resp, err := r.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return Metadata{}, errors.Wrap(err, "fetch url")
	}

	if resp.StatusCode() >= 400 {
		r.logger.Warnw("metadata fetch returned error status", "url", url, "status", resp.StatusCode())
	}

	m := Metadata{
		Headers: make(map[string]string, len(resp.Header())),
	}
	for key, values := range resp.Header() {
		if len(values) != 0 {
			m.Headers[strings.ToLower(key)] = values[0]
		}
	}

	if strings.HasPrefix(m.ContentType(), "text/html") {
		body := resp.Body()
		if len(body) > bodyLimit {
			body = body[:bodyLimit]
		}
		m.Title, m.Description = extractTitleAndDescription(body)
	}

	return m, nil
}

// extractTitleAndDescription pulls the <title> text and the first
// non-empty meta description (name="description" wins over
// property="og:description") out of an HTML document.
func extractTitleAndDescription(body []byte) (string, string) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", ""
	}

	title := ""
	description := ""
	ogDescription := ""

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name := ""
				property := ""
				content := ""
				for _, attr := range n.Attr {
					switch strings.ToLower(attr.Key) {
					case "name":
						name = strings.ToLower(attr.Val)
					case "property":
						property = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}
				if name == "description" && description == "" {
					description = strings.TrimSpace(content)
				}
				if property == "og:description" && ogDescription == "" {
					ogDescription = strings.TrimSpace(content)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if description == "" {
		description = ogDescription
	}
	return title, description
}
