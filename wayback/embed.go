package wayback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// errNoContent means a recovery source answered but held no post text.
var errNoContent = errors.New("no post content")

// postContent is what text recovery learns about one post.
type postContent struct {
	Text         string
	AuthorName   string
	AuthorHandle string
	// Retweet is set when the source says so explicitly; otherwise the
	// retweet flag is derived from the author handle.
	Retweet *bool
}

// authorInfo renders "Name (@handle)", or "" when the handle is unknown.
func (p *postContent) authorInfo() string {
	if p.AuthorHandle == "" {
		return ""
	}
	name := p.AuthorName
	if name == "" {
		name = p.AuthorHandle
	}
	return fmt.Sprintf("%s (@%s)", name, p.AuthorHandle)
}

type oembedResponse struct {
	URL        string `json:"url"`
	AuthorName string `json:"author_name"`
	AuthorURL  string `json:"author_url"`
	HTML       string `json:"html"`
}

// fetchEmbed recovers a post through the oEmbed endpoint. Deleted or
// protected posts answer 404/403, which are returned as permanent errors.
func (c *Client) fetchEmbed(ctx context.Context, tweetURL string) (*postContent, error) {
	q := url.Values{}
	q.Set("url", tweetURL)
	q.Set("omit_script", "true")
	endpoint := c.opts.OEmbedURL + "?" + q.Encode()

	var body []byte
	err := c.retry.Do(ctx, "oembed", func() error {
		var err error
		body, err = c.get(ctx, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}

	var resp oembedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse oembed: %w", err)
	}

	text := blockquoteText(resp.HTML)
	if text == "" {
		return nil, errNoContent
	}
	return &postContent{
		Text:         text,
		AuthorName:   resp.AuthorName,
		AuthorHandle: handleFromProfileURL(resp.AuthorURL),
	}, nil
}

func handleFromProfileURL(profile string) string {
	u, err := url.Parse(strings.TrimSpace(profile))
	if err != nil {
		return ""
	}
	seg := strings.Trim(u.Path, "/")
	if i := strings.Index(seg, "/"); i >= 0 {
		seg = seg[:i]
	}
	return seg
}

// blockquoteText extracts the post body from oEmbed markup: the text of the
// first <p> inside the blockquote, with <br> kept as newlines.
func blockquoteText(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	p := findElement(doc, "p")
	if p == nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(p)

	return strings.TrimSpace(sb.String())
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
