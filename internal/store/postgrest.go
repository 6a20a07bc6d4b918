package store

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
)

const (
	restPrefix         = "/rest/v1/"
	defaultHTTPTimeout = 15 * time.Second
	maxErrorBody       = 4 << 10
)

// RequestError is returned when the record store answers with a non-2xx status.
type RequestError struct {
	Method string
	Table  string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("record store %s %s returned status %d: %s", e.Method, e.Table, e.Status, e.Body)
}

// PostgRESTClient talks to a PostgREST endpoint (Supabase REST API).
type PostgRESTClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPostgRESTClient creates a client for baseURL authenticated with apiKey.
// A nil client uses a default with a request timeout.
func NewPostgRESTClient(baseURL, apiKey string, client *http.Client) *PostgRESTClient {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &PostgRESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

// Select reads rows of table matching filter into out (a pointer to a slice).
// A limit of zero means no limit.
func (c *PostgRESTClient) Select(ctx context.Context, table string, filter Filter, limit int, out any) error {
	query := filterQuery(filter)
	query.Set("select", "*")
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	_, err := c.do(ctx, http.MethodGet, table, query, nil, "", out)
	return err
}

// Page reads one page of table and returns the exact number of matching rows.
func (c *PostgRESTClient) Page(ctx context.Context, table string, q Query, out any) (int, error) {
	query := filterQuery(q.Filter)
	query.Set("select", "*")
	if cond := searchCondition(q.Search, q.SearchColumns); cond != "" {
		query.Set("or", cond)
	}
	if order := orderParam(q.Order); order != "" {
		query.Set("order", order)
	}
	if q.Offset > 0 {
		query.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	header, err := c.do(ctx, http.MethodGet, table, query, nil, "count=exact", out)
	if err != nil {
		return 0, err
	}
	return contentRangeTotal(header.Get("Content-Range")), nil
}

// Insert adds row to table. With ReturnRepresentation the created rows are
// decoded into out.
func (c *PostgRESTClient) Insert(ctx context.Context, table string, row any, opts WriteOptions, out any) error {
	_, err := c.do(ctx, http.MethodPost, table, url.Values{}, row, preferHeader(opts), out)
	return err
}

// Patch updates the rows of table matching filter.
func (c *PostgRESTClient) Patch(ctx context.Context, table string, filter Filter, patch any, opts WriteOptions, out any) error {
	if len(filter) == 0 {
		return fmt.Errorf("refusing to patch %s without a filter", table)
	}
	_, err := c.do(ctx, http.MethodPatch, table, filterQuery(filter), patch, preferHeader(opts), out)
	return err
}

func (c *PostgRESTClient) do(ctx context.Context, method, table string, query url.Values, body any, prefer string, out any) (header http.Header, err error) {
	endpoint := c.baseURL + restPrefix + url.PathEscape(table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", table, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to record store: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{Method: method, Table: table, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode %s response: %w", table, err)
	}
	return resp.Header, nil
}

func filterQuery(filter Filter) url.Values {
	query := url.Values{}
	for column, value := range filter {
		query.Set(column, "eq."+value)
	}
	return query
}

func preferHeader(opts WriteOptions) string {
	var parts []string
	if opts.MergeDuplicates {
		parts = append(parts, "resolution=merge-duplicates")
	}
	if opts.ReturnRepresentation {
		parts = append(parts, "return=representation")
	} else {
		parts = append(parts, "return=minimal")
	}
	return strings.Join(parts, ",")
}

// searchCondition builds an or=(...) filter matching term in any column.
// The pattern is quoted so commas and parentheses in term stay literal.
func searchCondition(term string, columns []string) string {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return ""
	}
	pattern := strconv.Quote("*" + term + "*")
	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = column + ".ilike." + pattern
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func orderParam(orders []Order) string {
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		p := o.Column + ".asc"
		if o.Descending {
			p = o.Column + ".desc"
		}
		if o.NullsLast {
			p += ".nullslast"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ",")
}

// contentRangeTotal reads the total of a "0-9/42" Content-Range header. An
// unknown total ("*") counts as zero.
func contentRangeTotal(v string) int {
	_, total, ok := strings.Cut(v, "/")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(total))
	if err != nil {
		return 0
	}
	return n
}
