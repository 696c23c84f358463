package models

// ScreenName is one handle a linked account was observed under.
type ScreenName struct {
	Name      string `json:"name"`
	DateRange string `json:"date_range"`
}

// IdentitySummary is the reduced identity history for a handle. It is
// computed per query and never stored.
type IdentitySummary struct {
	Handle           string       `json:"handle"`
	TotalAccounts    int          `json:"total_accounts"`
	AccountIDs       []string     `json:"account_ids"`
	KnownScreenNames []ScreenName `json:"known_screen_names"`
}

// FetchParams are the archive query parameters. Absent optionals are
// omitted from the outbound request entirely.
type FetchParams struct {
	Handle   string
	FromDate Optional[string] // YYYYMMDD
	ToDate   Optional[string] // YYYYMMDD
	Limit    Optional[int]
}
