package wayback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"archive-analyzer/models"
	"archive-analyzer/utils"
)

// ErrNoRecords is returned when the archive holds no captures for the query.
var ErrNoRecords = errors.New("wayback: no archived posts found")

// Options configures a Client.
type Options struct {
	CDXURL    string
	WebURL    string
	OEmbedURL string
	Timeout   time.Duration

	// RecoverText enables per-post text recovery after the index query.
	RecoverText    bool
	MaxConcurrency int
	RateLimitMs    int
	// Renderer is the optional headless-browser fallback; nil disables it.
	Renderer TextRenderer
}

// Client fetches archived posts for a handle from the Wayback Machine.
type Client struct {
	opts       Options
	httpClient *http.Client
	headers    *utils.HeaderSource
	retry      *utils.RetryConfig
	logger     *utils.Logger
	now        func() time.Time
}

// NewClient creates a ready-to-use archive Client.
func NewClient(opts Options, headers *utils.HeaderSource, retry *utils.RetryConfig, logger *utils.Logger) *Client {
	opts.CDXURL = strings.TrimRight(opts.CDXURL, "/")
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		headers:    headers,
		retry:      retry,
		logger:     logger,
		now:        time.Now,
	}
}

// Fetch queries the archive index for the handle's posts and returns one raw
// record per capture, with recovered text where available.
func (c *Client) Fetch(ctx context.Context, p models.FetchParams) ([]models.RawRecord, error) {
	c.logger.Info("[wayback] Searching captures for @%s", p.Handle)

	res, err := c.queryCDX(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(res.Snapshots) == 0 {
		return nil, ErrNoRecords
	}
	c.logger.Info("[wayback] %d capture(s) found", len(res.Snapshots))

	var contents map[string]*postContent
	if c.opts.RecoverText {
		contents = c.recoverContent(ctx, res.Snapshots)
	}

	records := make([]models.RawRecord, 0, len(res.Snapshots))
	for _, snap := range res.Snapshots {
		rec, err := c.buildRecord(p.Handle, snap, res.ResumeKey, contents[canonicalTweetURL(snap.Original)])
		if err != nil {
			c.logger.Warn("[wayback] Skipping unencodable capture %s: %v", snap.Original, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// recoverContent recovers each distinct post once, trying oEmbed, then a
// JSON capture of the post, then the headless renderer.
func (c *Client) recoverContent(ctx context.Context, snaps []Snapshot) map[string]*postContent {
	type target struct {
		tweetURL string
		jsonSnap *Snapshot
		firstRaw Snapshot
	}

	var targets []*target
	byURL := make(map[string]*target)
	for i := range snaps {
		key := canonicalTweetURL(snaps[i].Original)
		t, ok := byURL[key]
		if !ok {
			t = &target{tweetURL: key, firstRaw: snaps[i]}
			byURL[key] = t
			targets = append(targets, t)
		}
		if t.jsonSnap == nil && strings.HasPrefix(snaps[i].Mimetype, "application/json") {
			t.jsonSnap = &snaps[i]
		}
	}

	c.logger.Info("[wayback] Recovering text for %d distinct post(s)", len(targets))
	results := make([]*postContent, len(targets))
	pool := utils.NewWorkerPool(c.opts.MaxConcurrency, c.opts.RateLimitMs)
	pool.ForEach(ctx, len(targets), func(i int) {
		t := targets[i]

		content, err := c.fetchEmbed(ctx, t.tweetURL)
		if err == nil {
			results[i] = content
			return
		}
		c.logger.Debug("[wayback] oEmbed failed for %s: %v", t.tweetURL, err)

		if t.jsonSnap != nil {
			content, err := c.fetchJSONSnapshot(ctx, *t.jsonSnap)
			if err == nil {
				results[i] = content
				return
			}
			c.logger.Debug("[wayback] JSON capture failed for %s: %v", t.tweetURL, err)
		}

		if c.opts.Renderer != nil {
			page := archivedURL(c.opts.WebURL, t.firstRaw.Timestamp, t.firstRaw.Original)
			text, err := c.opts.Renderer.Render(ctx, page)
			if err != nil {
				c.logger.Debug("[wayback] Render failed for %s: %v", page, err)
				return
			}
			results[i] = &postContent{Text: text, AuthorHandle: tweetHandle(t.tweetURL)}
		}
	})

	out := make(map[string]*postContent, len(targets))
	recovered := 0
	for i, t := range targets {
		if results[i] != nil {
			out[t.tweetURL] = results[i]
			recovered++
		}
	}
	c.logger.Info("[wayback] Recovered text for %d/%d post(s)", recovered, len(targets))
	return out
}

// buildRecord encodes one capture following the v1 raw record contract.
// Values that could not be recovered are encoded as null.
func (c *Client) buildRecord(handle string, snap Snapshot, resumeKey string, content *postContent) (models.RawRecord, error) {
	parsed := canonicalTweetURL(snap.Original)

	rec := map[string]any{
		models.FieldArchivedURLKey:          snap.URLKey,
		models.FieldArchivedTimestamp:       snap.Timestamp,
		models.FieldParsedArchivedTimestamp: nullIfEmpty(humanTimestamp(snap.Timestamp)),
		models.FieldArchivedTweetURL:        archivedURL(c.opts.WebURL, snap.Timestamp, snap.Original),
		models.FieldParsedArchivedTweetURL:  archivedURL(c.opts.WebURL, snap.Timestamp, parsed),
		models.FieldOriginalTweetURL:        snap.Original,
		models.FieldParsedTweetURL:          parsed,
		models.FieldTweetText:               nil,
		models.FieldTweetIsRT:               nil,
		models.FieldTweetInfo:               nil,
		models.FieldArchivedMimetype:        snap.Mimetype,
		models.FieldArchivedStatusCode:      snap.StatusCode,
		models.FieldArchivedDigest:          snap.Digest,
		models.FieldArchivedLength:          snap.Length,
		models.FieldResumptionKey:           nullIfEmpty(resumeKey),
	}

	if content != nil {
		rec[models.FieldTweetText] = content.Text
		rec[models.FieldTweetInfo] = nullIfEmpty(content.authorInfo())
		switch {
		case content.Retweet != nil:
			rec[models.FieldTweetIsRT] = *content.Retweet
		case content.AuthorHandle != "":
			rec[models.FieldTweetIsRT] = !strings.EqualFold(content.AuthorHandle, handle)
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return models.RawRecord(data), nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
