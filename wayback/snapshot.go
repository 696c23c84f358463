package wayback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// archivedStatus is the subset of a v1.1 status object found in JSON captures.
type archivedStatus struct {
	Text            string          `json:"text"`
	FullText        string          `json:"full_text"`
	User            archivedUser    `json:"user"`
	RetweetedStatus json.RawMessage `json:"retweeted_status"`
	// Some captures wrap the status in a "data" envelope.
	Data *archivedStatus `json:"data"`
}

type archivedUser struct {
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

// fetchJSONSnapshot recovers a post from an application/json capture.
func (c *Client) fetchJSONSnapshot(ctx context.Context, snap Snapshot) (*postContent, error) {
	endpoint := rawSnapshotURL(c.opts.WebURL, snap.Timestamp, snap.Original)

	var body []byte
	err := c.retry.Do(ctx, "json-snapshot", func() error {
		var err error
		body, err = c.get(ctx, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}
	return parseJSONSnapshot(body)
}

func parseJSONSnapshot(body []byte) (*postContent, error) {
	var st archivedStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("parse json snapshot: %w", err)
	}
	if st.Data != nil && st.Text == "" && st.FullText == "" {
		st = *st.Data
	}

	text := st.FullText
	if text == "" {
		text = st.Text
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errNoContent
	}

	content := &postContent{
		Text:         text,
		AuthorName:   st.User.Name,
		AuthorHandle: st.User.ScreenName,
	}
	if raw := strings.TrimSpace(string(st.RetweetedStatus)); raw != "" && raw != "null" {
		rt := true
		content.Retweet = &rt
	}
	return content, nil
}
