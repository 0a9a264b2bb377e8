// Package companieshouse provides a client for the Companies House
// public search API (https://developer.company-information.service.gov.uk/).
package companieshouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://api.company-information.service.gov.uk"
	defaultTimeout = 15 * time.Second

	// probeQuery is a known-good search used to validate an API key.
	probeQuery = "BBC"

	// bodyExcerptLen bounds how much of an error response body is kept.
	bodyExcerptLen = 200
)

// Sentinel errors for the auth/quota status classes. Callers select on
// these with errors.Is rather than matching status strings.
var (
	// ErrUnauthorized is returned on HTTP 401/403 (rejected API key).
	ErrUnauthorized = errors.New("companieshouse: unauthorized")

	// ErrRateLimited is returned on HTTP 429 (search quota exhausted).
	ErrRateLimited = errors.New("companieshouse: rate limited")
)

// RemoteError reports an unexpected non-2xx response from the API.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("companieshouse: remote error %d: %s", e.StatusCode, e.Body)
}

// Candidate is one record returned by the company search endpoint.
// Missing fields decode to the empty string.
type Candidate struct {
	Title          string `json:"title"`
	CompanyNumber  string `json:"company_number"`
	CompanyStatus  string `json:"company_status"`
	CompanyType    string `json:"company_type"`
	AddressSnippet string `json:"address_snippet"`
	DateOfCreation string `json:"date_of_creation"`
}

// searchResponse is the wire shape of GET /search/companies.
type searchResponse struct {
	Items        []Candidate `json:"items"`
	TotalResults int         `json:"total_results"`
}

// Client searches the Companies House registry.
type Client interface {
	// Search issues one bounded search request. It never retries.
	Search(ctx context.Context, query string, itemsPerPage int) ([]Candidate, error)

	// ValidateKey probes the search endpoint with a known-good query to
	// confirm the configured API key is accepted.
	ValidateKey(ctx context.Context) error
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout overrides the per-request timeout on the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Companies House client. The API key is sent via
// HTTP Basic Auth as the username with an empty password, per the
// documented scheme.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, itemsPerPage int) ([]Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("items_per_page", strconv.Itoa(itemsPerPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search/companies?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "companieshouse: create request")
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "companieshouse: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "companieshouse: read response")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var sr searchResponse
		if err := json.Unmarshal(body, &sr); err != nil {
			return nil, eris.Wrap(err, "companieshouse: unmarshal response")
		}
		return sr.Items, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, eris.Wrapf(ErrUnauthorized, "status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: excerpt(body)}
	}
}

func (c *httpClient) ValidateKey(ctx context.Context) error {
	_, err := c.Search(ctx, probeQuery, 1)
	return err
}

func excerpt(body []byte) string {
	if len(body) > bodyExcerptLen {
		return string(body[:bodyExcerptLen])
	}
	return string(body)
}
