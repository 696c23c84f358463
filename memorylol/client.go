package memorylol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"archive-analyzer/models"
	"archive-analyzer/utils"
)

// ErrNoData is returned when the service knows nothing about a handle.
var ErrNoData = errors.New("memorylol: no account history")

// Client resolves a handle's identity history through the memory.lol API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    *utils.HeaderSource
	retry      *utils.RetryConfig
	logger     *utils.Logger
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, headers *utils.HeaderSource, retry *utils.RetryConfig, logger *utils.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		headers:    headers,
		retry:      retry,
		logger:     logger,
	}
}

// Resolve looks up handle and reduces the response to an IdentitySummary.
func (c *Client) Resolve(ctx context.Context, handle string) (*models.IdentitySummary, error) {
	var resp *lookupResponse
	err := c.retry.Do(ctx, "memorylol-lookup", func() error {
		var err error
		resp, err = c.lookup(ctx, handle)
		return err
	})
	if err != nil {
		return nil, err
	}

	summary := summarize(handle, resp)
	if summary == nil {
		return nil, ErrNoData
	}
	c.logger.Info("[memorylol] @%s: %d linked account(s), %d known handle(s)",
		handle, summary.TotalAccounts, len(summary.KnownScreenNames))
	return summary, nil
}

func (c *Client) lookup(ctx context.Context, handle string) (*lookupResponse, error) {
	endpoint := c.baseURL + "/v1/tw/" + url.PathEscape(handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, utils.Permanent(fmt.Errorf("create request: %w", err))
	}
	c.headers.Next().Apply(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, utils.Permanent(err)
	}

	var out lookupResponse
	if len(strings.TrimSpace(string(body))) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, utils.Permanent(fmt.Errorf("parse json: %w", err))
	}
	return &out, nil
}

// summarize reduces a raw lookup response. It returns nil when the response
// carries no accounts.
func summarize(handle string, resp *lookupResponse) *models.IdentitySummary {
	if resp == nil || len(resp.Accounts) == 0 {
		return nil
	}

	summary := &models.IdentitySummary{
		Handle:           handle,
		TotalAccounts:    len(resp.Accounts),
		AccountIDs:       make([]string, 0, len(resp.Accounts)),
		KnownScreenNames: []models.ScreenName{},
	}

	for _, acct := range resp.Accounts {
		id := acct.IDStr
		if id == "" {
			id = "N/A"
		}
		summary.AccountIDs = append(summary.AccountIDs, id)

		for _, sn := range acct.ScreenNames {
			summary.KnownScreenNames = append(summary.KnownScreenNames, models.ScreenName{
				Name:      sn.Name,
				DateRange: DateRange(sn.Dates),
			})
		}
	}
	return summary
}

// DateRange renders observed dates in service order: one date reads
// "since <date>", two or more read "<first> to <last>".
func DateRange(dates []string) string {
	switch len(dates) {
	case 0:
		return "date unknown"
	case 1:
		return "since " + dates[0]
	default:
		return dates[0] + " to " + dates[len(dates)-1]
	}
}
