package redmine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultURL is the VEuPathDB Redmine server.
const DefaultURL = "https://redmine.apidb.org"

// DefaultProjectID is the VEuPathDB project on DefaultURL.
const DefaultProjectID = 1976

const redminePageSize = 100
const redmineMaxIssues = 5000

// Config holds the settings for a Client.
type Config struct {
	// BaseURL defaults to DefaultURL.
	BaseURL string
	// Key is the Redmine API key, sent as X-Redmine-API-Key.
	Key string
	// ProjectID restricts searches and version lookups; 0 disables the restriction.
	ProjectID int
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// FieldMap translates filter names; DefaultFieldMap when nil.
	FieldMap map[string]string
}

// Client is a minimal Redmine REST client.
type Client struct {
	baseURL    string
	key        string
	projectID  int
	httpClient *http.Client
	fieldMap   map[string]string
}

type issuesResponse struct {
	Issues     []Issue `json:"issues"`
	TotalCount int     `json:"total_count"`
	Offset     int     `json:"offset"`
	Limit      int     `json:"limit"`
}

type issueResponse struct {
	Issue Issue `json:"issue"`
}

type versionsResponse struct {
	Versions []Ref `json:"versions"`
}

type customValue struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}

type issueUpdateRequest struct {
	Issue struct {
		CustomFields []customValue `json:"custom_fields"`
	} `json:"issue"`
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("redmine key cannot be empty")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        cfg.Key,
		projectID:  cfg.ProjectID,
		httpClient: httpClient,
		fieldMap:   cfg.FieldMap,
	}, nil
}

// NewFilter returns an empty filter using the client's field map.
func (c *Client) NewFilter() *Filter {
	return NewFilter(c.fieldMap)
}

// BaseURL returns the server root used by the client.
func (c *Client) BaseURL() string { return c.baseURL }

// Issues returns every issue matching filter, following Redmine's offset pagination.
func (c *Client) Issues(ctx context.Context, filter *Filter) ([]Issue, error) {
	query := url.Values{}
	if filter != nil {
		query = filter.Values()
	}
	if c.projectID > 0 {
		query.Set("project_id", strconv.Itoa(c.projectID))
	}
	query.Set("limit", strconv.Itoa(redminePageSize))
	slog.Debug("Fetching Redmine issues", "query", query.Encode())

	var all []Issue
	offset := 0
	for {
		query.Set("offset", strconv.Itoa(offset))
		var page issuesResponse
		if err := c.do(ctx, http.MethodGet, "/issues.json", query, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Issues...)
		slog.Debug("Redmine pagination", "issuesSoFar", len(all), "total", page.TotalCount)

		if len(all) >= redmineMaxIssues {
			slog.Debug("Redmine issue cap reached", "cap", redmineMaxIssues, "total", page.TotalCount)
			all = all[:redmineMaxIssues]
			break
		}

		offset += len(page.Issues)
		if len(page.Issues) == 0 || offset >= page.TotalCount {
			break
		}
	}

	slog.Debug("Redmine issues fetched", "count", len(all))
	return all, nil
}

// Issue fetches a single issue by id.
func (c *Client) Issue(ctx context.Context, id int) (*Issue, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid issue id %d", id)
	}
	var resp issueResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/issues/%d.json", id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Issue, nil
}

// BuildVersionID resolves the id of the project version named "Build <build>".
func (c *Client) BuildVersionID(ctx context.Context, build int) (int, error) {
	if c.projectID <= 0 {
		return 0, fmt.Errorf("a project id is required to resolve build versions")
	}
	var resp versionsResponse
	path := fmt.Sprintf("/projects/%d/versions.json", c.projectID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return 0, err
	}
	name := fmt.Sprintf("Build %d", build)
	for _, v := range resp.Versions {
		if v.Name == name {
			return v.ID, nil
		}
	}
	return 0, fmt.Errorf("no version named %q in project %d", name, c.projectID)
}

// UpdateCustomValue sets one custom field of issue to value.
func (c *Client) UpdateCustomValue(ctx context.Context, issue *Issue, fieldName, value string) error {
	if issue == nil {
		return fmt.Errorf("issue cannot be nil")
	}
	id, ok := IDs(issue)[fieldName]
	if !ok {
		return fmt.Errorf("can't find custom field named %s", fieldName)
	}

	var req issueUpdateRequest
	req.Issue.CustomFields = []customValue{{ID: id, Value: value}}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal redmine update: %w", err)
	}

	slog.Debug("Updating Redmine issue", "issue", issue.ID, "field", fieldName, "value", value)
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/issues/%d.json", issue.ID), nil, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create redmine request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Redmine-API-Key", c.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch from redmine: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read redmine response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse redmine response: %w", err)
	}
	return nil
}
