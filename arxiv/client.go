package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrRateLimited is returned when arXiv throttles the request (HTTP 429).
// Callers surface this to the model as a "do not retry" notice so the
// agent loop can stop hammering the upstream.
var ErrRateLimited = errors.New("arxiv: upstream rate limited")

// SortBy selects the arXiv result ordering.
type SortBy string

const (
	SortRelevance SortBy = "relevance"
	SortDate      SortBy = "date"
	SortUpdated   SortBy = "updated"
)

var sortCriteria = map[SortBy]string{
	SortRelevance: "relevance",
	SortDate:      "submittedDate",
	SortUpdated:   "lastUpdatedDate",
}

// ParseSortBy maps a user-supplied sort name to a SortBy, defaulting to relevance.
func ParseSortBy(s string) SortBy {
	switch SortBy(s) {
	case SortDate, SortUpdated:
		return SortBy(s)
	default:
		return SortRelevance
	}
}

// Article is the metadata record stored per paper.
type Article struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Summary   string   `json:"summary"`
	PDFURL    string   `json:"pdf_url"`
	Published string   `json:"published"` // YYYY-MM-DD
	Topic     string   `json:"topic"`
}

const (
	defaultBaseURL = "https://export.arxiv.org/api/query"

	// arXiv's submittedDate query filter is unreliable, so date ranges are
	// enforced locally over an over-fetched result set.
	fetchMultiplier = 3
	maxFetchCount   = 25
)

// Client queries the arXiv Atom API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the arXiv API endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Atom feed wire format.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
}

// Search queries arXiv for papers matching the topic.
//
// When a date bound is set, extra results are fetched (up to maxFetchCount)
// and filtered locally by published date; at most maxResults items are
// returned. Dates use YYYYMMDD, inclusive on both ends.
func (c *Client) Search(ctx context.Context, topic string, maxResults int, sort SortBy, dateFrom, dateTo string) ([]Article, error) {
	hasDateFilter := dateFrom != "" || dateTo != ""
	fetchCount := maxResults
	if hasDateFilter {
		fetchCount = maxResults * fetchMultiplier
	}
	if fetchCount > maxFetchCount {
		fetchCount = maxFetchCount
	}

	criterion, ok := sortCriteria[sort]
	if !ok {
		criterion = sortCriteria[SortRelevance]
	}

	q := url.Values{}
	q.Set("search_query", "all:"+topic)
	q.Set("start", "0")
	q.Set("max_results", fmt.Sprintf("%d", fetchCount))
	q.Set("sortBy", criterion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to parse arxiv feed: %w", err)
	}

	all := make([]Article, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		all = append(all, entryToArticle(entry, topic))
	}

	articles := all
	if hasDateFilter {
		articles = filterByDate(all, dateFrom, dateTo)
	}
	if len(articles) > maxResults {
		articles = articles[:maxResults]
	}

	c.logger.Info("arxiv search complete",
		zap.String("topic", topic),
		zap.Int("fetched", len(all)),
		zap.Int("returned", len(articles)),
		zap.String("date_from", dateFrom),
		zap.String("date_to", dateTo))

	return articles, nil
}

func entryToArticle(entry atomEntry, topic string) Article {
	a := Article{
		ID:      shortID(entry.ID),
		Title:   strings.Join(strings.Fields(entry.Title), " "),
		Summary: strings.TrimSpace(entry.Summary),
		Topic:   topic,
	}
	for _, author := range entry.Authors {
		a.Authors = append(a.Authors, author.Name)
	}
	for _, link := range entry.Links {
		if link.Title == "pdf" || strings.Contains(link.Href, "/pdf/") {
			a.PDFURL = link.Href
			break
		}
	}
	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		a.Published = t.Format("2006-01-02")
	}
	return a
}

// shortID extracts the arXiv short id ("2401.12345v2") from the entry URL.
func shortID(entryURL string) string {
	u, err := url.Parse(entryURL)
	if err != nil {
		return entryURL
	}
	return path.Base(u.Path)
}

// filterByDate keeps articles whose published date falls within [from, to].
// Bounds are YYYYMMDD; an empty bound is open-ended. Articles with an
// unparseable published date are dropped when a filter is active.
func filterByDate(articles []Article, dateFrom, dateTo string) []Article {
	from := time.Time{}
	to := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if dateFrom != "" {
		if t, err := time.Parse("20060102", dateFrom); err == nil {
			from = t
		}
	}
	if dateTo != "" {
		if t, err := time.Parse("20060102", dateTo); err == nil {
			to = t
		}
	}

	var filtered []Article
	for _, a := range articles {
		pub, err := time.Parse("2006-01-02", a.Published)
		if err != nil {
			continue
		}
		if !pub.Before(from) && !pub.After(to) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
