package wayback

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"archive-analyzer/models"
	"archive-analyzer/utils"
)

type stubRenderer struct {
	text  string
	calls atomic.Int32
}

func (s *stubRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	s.calls.Add(1)
	if s.text == "" {
		return "", errNoContent
	}
	return s.text, nil
}

const testCDX = `[
	["urlkey","timestamp","original","mimetype","statuscode","digest","length"],
	["com,twitter)/jack/status/20","20060321205000","https://twitter.com/jack/status/20","text/html","200","D1","100"],
	["com,twitter)/jack/status/20","20070101000000","http://www.twitter.com/jack/status/20?lang=en","text/html","200","D2","101"],
	["com,twitter)/jack/status/21","20080101000000","https://twitter.com/jack/status/21","application/json","200","D3","102"],
	["com,twitter)/jack/status/22","notadate","https://twitter.com/jack/status/22","text/html","200","D4","103"],
	[],
	["next-page"]
]`

func newArchiveServer(t *testing.T, oembedCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cdx":
			if r.URL.Query().Has("limit") {
				t.Errorf("limit should be omitted, got %q", r.URL.Query().Get("limit"))
			}
			w.Write([]byte(testCDX))
		case r.URL.Path == "/oembed":
			oembedCalls.Add(1)
			switch r.URL.Query().Get("url") {
			case "https://twitter.com/jack/status/20":
				json.NewEncoder(w).Encode(oembedResponse{
					AuthorName: "Jack",
					AuthorURL:  "https://twitter.com/jack",
					HTML:       `<blockquote><p>just setting up my twttr</p>&mdash; Jack</blockquote>`,
				})
			default:
				http.NotFound(w, r)
			}
		case strings.HasPrefix(r.URL.Path, "/web/20080101000000id_/"):
			w.Write([]byte(`{"text":"RT @biz: shipping","user":{"name":"Jack","screen_name":"jack"},"retweeted_status":{"id_str":"1"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestClient(srv *httptest.Server, renderer TextRenderer) *Client {
	c := NewClient(Options{
		CDXURL:         srv.URL + "/cdx",
		WebURL:         srv.URL + "/web",
		OEmbedURL:      srv.URL + "/oembed",
		Timeout:        5 * time.Second,
		RecoverText:    true,
		MaxConcurrency: 1,
		Renderer:       renderer,
	},
		utils.NewHeaderSource(nil, rand.New(rand.NewSource(1))),
		&utils.RetryConfig{MaxAttempts: 1, Logger: utils.Discard()},
		utils.Discard())
	c.now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }
	return c
}

func decode(t *testing.T, rec models.RawRecord) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec, &m); err != nil {
		t.Fatalf("record is not a JSON object: %v", err)
	}
	return m
}

func TestFetchBuildsRecordsWithRecoveredText(t *testing.T) {
	var oembedCalls atomic.Int32
	srv := newArchiveServer(t, &oembedCalls)
	defer srv.Close()

	renderer := &stubRenderer{text: "rendered body"}
	records, err := newTestClient(srv, renderer).Fetch(context.Background(), models.FetchParams{Handle: "jack"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	// Two captures of status/20 share one canonical post.
	if got := oembedCalls.Load(); got != 3 {
		t.Errorf("oEmbed calls = %d; want 3 (one per distinct post)", got)
	}

	first := decode(t, records[0])
	for _, field := range []string{
		models.FieldArchivedURLKey, models.FieldArchivedTimestamp, models.FieldParsedArchivedTimestamp,
		models.FieldArchivedTweetURL, models.FieldParsedArchivedTweetURL, models.FieldOriginalTweetURL,
		models.FieldParsedTweetURL, models.FieldTweetText, models.FieldTweetIsRT, models.FieldTweetInfo,
		models.FieldArchivedMimetype, models.FieldArchivedStatusCode, models.FieldArchivedDigest,
		models.FieldArchivedLength, models.FieldResumptionKey,
	} {
		if _, ok := first[field]; !ok {
			t.Errorf("record missing field %q", field)
		}
	}
	if first[models.FieldTweetText] != "just setting up my twttr" {
		t.Errorf("text = %v", first[models.FieldTweetText])
	}
	if first[models.FieldTweetIsRT] != false {
		t.Errorf("is_RT = %v; want false for the queried author", first[models.FieldTweetIsRT])
	}
	if first[models.FieldTweetInfo] != "Jack (@jack)" {
		t.Errorf("info = %v", first[models.FieldTweetInfo])
	}
	if first[models.FieldParsedArchivedTimestamp] != "2006/03/21 20:50:00" {
		t.Errorf("parsed timestamp = %v", first[models.FieldParsedArchivedTimestamp])
	}
	if first[models.FieldResumptionKey] != "next-page" {
		t.Errorf("resumption key = %v", first[models.FieldResumptionKey])
	}

	second := decode(t, records[1])
	if second[models.FieldParsedTweetURL] != "https://twitter.com/jack/status/20" {
		t.Errorf("parsed url = %v", second[models.FieldParsedTweetURL])
	}
	if second[models.FieldTweetText] != "just setting up my twttr" {
		t.Errorf("duplicate capture should share recovered text, got %v", second[models.FieldTweetText])
	}

	third := decode(t, records[2])
	if third[models.FieldTweetText] != "RT @biz: shipping" {
		t.Errorf("json capture text = %v", third[models.FieldTweetText])
	}
	if third[models.FieldTweetIsRT] != true {
		t.Errorf("is_RT = %v; want true from retweeted_status", third[models.FieldTweetIsRT])
	}

	fourth := decode(t, records[3])
	if fourth[models.FieldTweetText] != "rendered body" {
		t.Errorf("rendered text = %v", fourth[models.FieldTweetText])
	}
	if fourth[models.FieldParsedArchivedTimestamp] != nil {
		t.Errorf("unparseable timestamp should encode null, got %v", fourth[models.FieldParsedArchivedTimestamp])
	}
	if renderer.calls.Load() != 1 {
		t.Errorf("renderer calls = %d; want 1", renderer.calls.Load())
	}
}

func TestFetchWithoutRecoveryLeavesTextNull(t *testing.T) {
	var oembedCalls atomic.Int32
	srv := newArchiveServer(t, &oembedCalls)
	defer srv.Close()

	c := newTestClient(srv, nil)
	c.opts.RecoverText = false

	records, err := c.Fetch(context.Background(), models.FetchParams{Handle: "jack"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oembedCalls.Load() != 0 {
		t.Errorf("oEmbed should not be called, got %d calls", oembedCalls.Load())
	}
	for i, rec := range records {
		m := decode(t, rec)
		if m[models.FieldTweetText] != nil || m[models.FieldTweetIsRT] != nil {
			t.Errorf("record %d: text/is_RT should be null, got %v / %v", i, m[models.FieldTweetText], m[models.FieldTweetIsRT])
		}
	}
}

func TestFetchNoCaptures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).Fetch(context.Background(), models.FetchParams{Handle: "ghost"})
	if !errors.Is(err, ErrNoRecords) {
		t.Errorf("expected ErrNoRecords, got %v", err)
	}
}

func TestFetchIndexFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).Fetch(context.Background(), models.FetchParams{Handle: "jack"})
	if err == nil || errors.Is(err, ErrNoRecords) {
		t.Errorf("expected a transport error, got %v", err)
	}
}
