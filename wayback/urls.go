package wayback

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// cdxTimestampLayout is the fixed-width capture timestamp used by the archive.
const cdxTimestampLayout = "20060102150405"

var statusURLRegexp = regexp.MustCompile(`(?i)^https?://(?:www\.|mobile\.)?(?:twitter|x)\.com(?::\d+)?/([A-Za-z0-9_]{1,15})/status(?:es)?/(\d+)`)

// canonicalTweetURL reduces an archived post URL to
// https://twitter.com/{handle}/status/{id}. URLs that do not look like a
// post are returned trimmed but otherwise untouched.
func canonicalTweetURL(original string) string {
	s := strings.TrimSpace(original)
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	m := statusURLRegexp.FindStringSubmatch(s)
	if m == nil {
		return strings.TrimSpace(original)
	}
	return "https://twitter.com/" + m[1] + "/status/" + m[2]
}

// tweetHandle returns the handle segment of a post URL, or "".
func tweetHandle(rawURL string) string {
	m := statusURLRegexp.FindStringSubmatch(canonicalTweetURL(rawURL))
	if m == nil {
		return ""
	}
	return m[1]
}

func archivedURL(webBase, timestamp, target string) string {
	return strings.TrimRight(webBase, "/") + "/" + timestamp + "/" + target
}

// rawSnapshotURL addresses the archived bytes without the archive's page chrome.
func rawSnapshotURL(webBase, timestamp, target string) string {
	return strings.TrimRight(webBase, "/") + "/" + timestamp + "id_/" + target
}

// humanTimestamp renders a capture timestamp as "2006/01/02 15:04:05", or
// "" when it does not parse.
func humanTimestamp(ts string) string {
	t, err := time.Parse(cdxTimestampLayout, ts)
	if err != nil {
		return ""
	}
	return t.Format("2006/01/02 15:04:05")
}
