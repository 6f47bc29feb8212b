package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fbraun/melodia/internal/repository"
)

// Client is a generic record-store client speaking the PostgREST wire
// protocol: row-level reads and writes over named collections with
// filter, embed, order, and limit semantics.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a record store client for the given endpoint
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Filter is one predicate on a collection column
type Filter struct {
	Column string
	Cond   string
}

// Eq matches rows where column equals value
func Eq(column, value string) Filter {
	return Filter{Column: column, Cond: "eq." + value}
}

// Ilike matches rows where column contains pattern, case-insensitive.
// PostgREST uses * as the wildcard character.
func Ilike(column, pattern string) Filter {
	return Filter{Column: column, Cond: "ilike." + pattern}
}

// Or combines raw conditions disjunctively
func Or(conds ...string) Filter {
	return Filter{Column: "or", Cond: "(" + strings.Join(conds, ",") + ")"}
}

// CondIlike renders a condition usable inside Or
func CondIlike(column, pattern string) string {
	return column + ".ilike." + pattern
}

// ContainsPattern wraps a query string in ilike wildcards
func ContainsPattern(query string) string {
	return "*" + query + "*"
}

// Order describes result ordering for Select
type Order struct {
	Column     string
	Descending bool
}

// SelectOptions parameterizes one Select call
type SelectOptions struct {
	// Columns is the PostgREST select list, including embedded
	// relations such as "*,artist:profiles(*)"
	Columns string
	Filters []Filter
	Order   *Order
	Limit   int
}

// Select reads rows from a collection and returns the raw JSON array
func (c *Client) Select(ctx context.Context, collection string, opts SelectOptions) (json.RawMessage, error) {
	q := url.Values{}
	columns := opts.Columns
	if columns == "" {
		columns = "*"
	}
	q.Set("select", columns)
	for _, f := range opts.Filters {
		q.Add(f.Column, f.Cond)
	}
	if opts.Order != nil {
		dir := "asc"
		if opts.Order.Descending {
			dir = "desc"
		}
		q.Set("order", opts.Order.Column+"."+dir)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	req, err := c.newRequest(ctx, http.MethodGet, collection, q, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Insert writes one record into a collection
func (c *Client) Insert(ctx context.Context, collection string, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, collection, nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")

	_, err = c.do(req, http.StatusCreated)
	return err
}

// DeleteWhere removes all rows matching the filters and returns the
// count of deleted rows
func (c *Client) DeleteWhere(ctx context.Context, collection string, filters ...Filter) (int64, error) {
	q := url.Values{}
	for _, f := range filters {
		q.Add(f.Column, f.Cond)
	}

	req, err := c.newRequest(ctx, http.MethodDelete, collection, q, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "return=representation")

	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return 0, err
	}

	var deleted []json.RawMessage
	if err := json.Unmarshal(body, &deleted); err != nil {
		return 0, fmt.Errorf("failed to decode delete response: %w", err)
	}
	return int64(len(deleted)), nil
}

func (c *Client) newRequest(ctx context.Context, method, collection string, q url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + "/" + collection
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes the request and classifies failures: rejected writes map
// to ErrValidation, everything network-shaped to ErrTransport
func (c *Client) do(req *http.Request, wantStatus int) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", repository.ErrTransport, err)
	}

	switch {
	case resp.StatusCode == wantStatus || (resp.StatusCode >= 200 && resp.StatusCode < 300):
		return body, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: status %d: %s", repository.ErrValidation, resp.StatusCode, strings.TrimSpace(string(body)))
	default:
		return nil, fmt.Errorf("%w: status %d", repository.ErrTransport, resp.StatusCode)
	}
}
