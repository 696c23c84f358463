package wayback

import "testing"

func TestCanonicalTweetURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://twitter.com/jack/status/20", "https://twitter.com/jack/status/20"},
		{"http://www.twitter.com/jack/status/20?lang=en", "https://twitter.com/jack/status/20"},
		{"https://mobile.twitter.com/Jack/statuses/20/photo/1", "https://twitter.com/Jack/status/20"},
		{"https://x.com/jack/status/20", "https://twitter.com/jack/status/20"},
		{"https://twitter.com/jack%2Fstatus%2F20", "https://twitter.com/jack/status/20"},
		{"  https://example.com/page  ", "https://example.com/page"},
	}
	for _, tt := range tests {
		if got := canonicalTweetURL(tt.in); got != tt.want {
			t.Errorf("canonicalTweetURL(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestTweetHandle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://twitter.com/jack/status/20", "jack"},
		{"https://x.com/Some_User/status/1", "Some_User"},
		{"https://twitter.com/jack", ""},
	}
	for _, tt := range tests {
		if got := tweetHandle(tt.in); got != tt.want {
			t.Errorf("tweetHandle(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestArchiveURLs(t *testing.T) {
	target := "https://twitter.com/jack/status/20"
	if got, want := archivedURL("https://web.archive.org/web/", "20200101000000", target),
		"https://web.archive.org/web/20200101000000/"+target; got != want {
		t.Errorf("archivedURL = %q; want %q", got, want)
	}
	if got, want := rawSnapshotURL("https://web.archive.org/web", "20200101000000", target),
		"https://web.archive.org/web/20200101000000id_/"+target; got != want {
		t.Errorf("rawSnapshotURL = %q; want %q", got, want)
	}
}

func TestHumanTimestamp(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"20240615123045", "2024/06/15 12:30:45"},
		{"notadate", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := humanTimestamp(tt.in); got != tt.want {
			t.Errorf("humanTimestamp(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
