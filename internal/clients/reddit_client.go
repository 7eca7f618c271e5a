package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/spacesedan/postsentiment/internal/models"
)

// RedditClient queries the listing endpoints with an already authenticated
// HTTP client. Requests are paced by limiter and never retried.
type RedditClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewRedditClient builds a client for baseURL. A nil limiter disables pacing.
func NewRedditClient(baseURL string, client *http.Client, limiter *rate.Limiter) *RedditClient {
	if baseURL == "" {
		baseURL = REDDIT_API_URL
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &RedditClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		limiter: limiter,
	}
}

// NewLimiter allows perSecond requests per second with no burst.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// FetchTop returns the top posts of a subreddit.
func (rc *RedditClient) FetchTop(ctx context.Context, source string) (*models.Listing, error) {
	endpoint := fmt.Sprintf("%s/r/%s/top", rc.baseURL, url.PathEscape(source))
	return rc.get(ctx, source, endpoint)
}

// FetchSearch runs a site-wide search for term, newest first, one full page.
func (rc *RedditClient) FetchSearch(ctx context.Context, term string) (*models.Listing, error) {
	parsedURL, err := url.Parse(rc.baseURL + "/search")
	if err != nil {
		return nil, &FetchError{Target: term, Err: fmt.Errorf("parse url: %w", err)}
	}
	query := parsedURL.Query()
	query.Set("q", term)
	query.Set("limit", strconv.Itoa(SEARCH_PAGE_SIZE))
	query.Set("sort", SEARCH_SORT)
	parsedURL.RawQuery = query.Encode()

	return rc.get(ctx, term, parsedURL.String())
}

func (rc *RedditClient) get(ctx context.Context, target, endpoint string) (*models.Listing, error) {
	if err := rc.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Target: target, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Target: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	slog.Debug("[RedditClient] GET", slog.String("target", target), slog.String("url", endpoint))

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, &FetchError{Target: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{
			Target: target,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	listing, err := DecodeListing(resp.Body)
	if err != nil {
		return nil, &FetchError{Target: target, Status: resp.StatusCode, Err: err}
	}
	return listing, nil
}

// DecodeListing decodes a listing body and rejects documents without
// data.children.
func DecodeListing(r io.Reader) (*models.Listing, error) {
	var raw struct {
		Data *struct {
			After    string             `json:"after"`
			Children *[]json.RawMessage `json:"children"`
		} `json:"data"`
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &models.SchemaError{Field: "listing", Err: err}
	}
	if raw.Data == nil {
		return nil, &models.SchemaError{Field: "data", Err: errors.New("missing")}
	}
	if raw.Data.Children == nil {
		return nil, &models.SchemaError{Field: "data.children", Err: errors.New("missing")}
	}

	listing := &models.Listing{Data: &models.ListingData{After: raw.Data.After}}
	for i, rawChild := range *raw.Data.Children {
		var child struct {
			Data *models.ListingPost `json:"data"`
		}
		if err := json.Unmarshal(rawChild, &child); err != nil {
			return nil, &models.SchemaError{Field: fmt.Sprintf("data.children[%d]", i), Err: err}
		}
		if child.Data == nil {
			return nil, &models.SchemaError{Field: fmt.Sprintf("data.children[%d].data", i), Err: errors.New("missing")}
		}
		listing.Data.Children = append(listing.Data.Children, models.ListingChild{Data: *child.Data})
	}
	return listing, nil
}
