// Package booksearch looks books up in the Aladin catalogue.
package booksearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sendgrid/rest"

	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/keyring"
	"github.com/julianstephens/chapterly/internal/logger"
)

const (
	DefaultBaseURL = "http://www.aladin.co.kr/ttb/api/ItemSearch.aspx"
	DefaultTimeout = 10 * time.Second
	maxResults     = 10
	apiVersion     = "20131101"
)

// ErrNoKey is returned when no TTB key is configured.
var ErrNoKey = errors.New("no Aladin TTB key configured; set " + constants.EnvAladinKey + " or run 'chapterly keyring set aladin'")

// Item is one search hit.
type Item struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	PubDate     string `json:"pubDate"`
	ISBN        string `json:"isbn"`
	ISBN13      string `json:"isbn13"`
	Cover       string `json:"cover"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// BestISBN prefers the 13-digit ISBN.
func (i Item) BestISBN() string {
	if i.ISBN13 != "" {
		return i.ISBN13
	}
	return i.ISBN
}

type response struct {
	TotalResults int    `json:"totalResults"`
	Items        []Item `json:"item"`
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

type Client struct {
	key     string
	baseURL string
	rest    *rest.Client
}

type Option func(*Client)

// WithBaseURL points the client at another endpoint, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.rest = &rest.Client{HTTPClient: h} }
}

func New(key string, opts ...Option) *Client {
	c := &Client{
		key:     key,
		baseURL: DefaultBaseURL,
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: DefaultTimeout}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveKey reads the TTB key from the environment, then the OS keyring.
func ResolveKey() (string, error) {
	if k := strings.TrimSpace(os.Getenv(constants.EnvAladinKey)); k != "" {
		return k, nil
	}
	k, err := keyring.Get(keyring.AladinKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoKey
		}
		return "", err
	}
	return k, nil
}

// Search runs a title search and returns up to ten books.
func (c *Client) Search(ctx context.Context, query string) ([]Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if c.key == "" {
		return nil, ErrNoKey
	}

	req := rest.Request{
		Method:  rest.Get,
		BaseURL: c.baseURL,
		QueryParams: map[string]string{
			"ttbkey":       c.key,
			"Query":        query,
			"QueryType":    "Title",
			"MaxResults":   fmt.Sprint(maxResults),
			"start":        "1",
			"SearchTarget": "Book",
			"output":       "js",
			"Version":      apiVersion,
		},
	}
	logger.Debug("Searching Aladin", "query", query)
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build book search request: %w", err)
	}
	res, err := c.rest.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("book search failed: %w", err)
	}
	resp, err := rest.BuildResponse(res)
	if err != nil {
		return nil, fmt.Errorf("failed to read book search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("book search failed: HTTP %d", resp.StatusCode)
	}

	var out response
	if err := json.Unmarshal(cleanJS([]byte(resp.Body)), &out); err != nil {
		return nil, fmt.Errorf("failed to decode book search response: %w", err)
	}
	if out.ErrorCode != 0 {
		return nil, fmt.Errorf("book search failed: %s (code %d)", out.ErrorMessage, out.ErrorCode)
	}
	if len(out.Items) > maxResults {
		out.Items = out.Items[:maxResults]
	}
	return out.Items, nil
}

// cleanJS turns the "js" output into strict JSON: it may end in a semicolon
// and escapes single quotes.
func cleanJS(b []byte) []byte {
	b = bytes.TrimSpace(b)
	b = bytes.TrimSuffix(b, []byte(";"))
	return bytes.ReplaceAll(b, []byte(`\'`), []byte(`'`))
}
