package services

import "strings"

// Content type labels, in the order they are applied.
const (
	LabelRetweet       = "Retweet"
	LabelContainsLink  = "Contains Link"
	LabelQuestion      = "Question"
	LabelMultiMention  = "Multi-mention"
	LabelMultiHashtag  = "Multi-hashtag"
	LabelStandardTweet = "Standard Tweet"
)

// CategoryOrder is the canonical label order, used to break count ties.
var CategoryOrder = []string{
	LabelRetweet, LabelContainsLink, LabelQuestion,
	LabelMultiMention, LabelMultiHashtag, LabelStandardTweet,
}

// CategoryExplanations describes each label for display.
var CategoryExplanations = map[string]string{
	LabelContainsLink:  "Tweets containing URLs or links",
	LabelStandardTweet: "Regular tweets without special characteristics",
	LabelQuestion:      "Tweets that ask questions or contain question marks",
	LabelRetweet:       "Tweets that are retweets of other users",
	LabelMultiMention:  "Tweets mentioning 2 or more users",
	LabelMultiHashtag:  "Tweets using 2 or more hashtags",
}

var (
	linkMarkers     = []string{"http://", "https://", "www."}
	questionMarkers = []string{"?", "what", "why", "how", "when", "where", "who"}
)

// Classify returns every content label that applies to text, in label
// order. Text with no special traits is a Standard Tweet.
func Classify(text string) []string {
	lower := strings.ToLower(text)

	var labels []string
	if strings.HasPrefix(lower, "rt @") || strings.Contains(lower, " retweet ") {
		labels = append(labels, LabelRetweet)
	}
	if containsAny(lower, linkMarkers) {
		labels = append(labels, LabelContainsLink)
	}
	if containsAny(lower, questionMarkers) {
		labels = append(labels, LabelQuestion)
	}
	if strings.Count(lower, "@") >= 2 {
		labels = append(labels, LabelMultiMention)
	}
	if strings.Count(lower, "#") >= 2 {
		labels = append(labels, LabelMultiHashtag)
	}

	if len(labels) == 0 {
		return []string{LabelStandardTweet}
	}
	return labels
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
