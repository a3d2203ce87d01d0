// Package insdc looks up assembly metadata in the NCBI Assembly database
// through the Entrez E-utilities.
package insdc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// DefaultURL is the E-utilities endpoint.
const DefaultURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const defaultTool = "veupath-redmine"

// ErrNotFound is returned when no assembly matches an accession.
var ErrNotFound = errors.New("assembly not found in INSDC")

// Config holds the settings for a Client.
type Config struct {
	BaseURL string
	// Email is required by NCBI to identify the caller.
	Email string
	// Tool defaults to "veupath-redmine".
	Tool       string
	HTTPClient *http.Client
}

// AssemblySummary is the part of an assembly docsum used by the genome checks.
type AssemblySummary struct {
	UID               string    `json:"uid"`
	AssemblyAccession string    `json:"assemblyaccession"`
	LatestAccession   string    `json:"latestaccession"`
	PropertyList      []string  `json:"propertylist"`
	AnomalousList     []Anomaly `json:"anomalouslist"`
	ExclFromRefSeq    []string  `json:"exclfromrefseq"`
}

// Anomaly is one flagged problem of an assembly.
type Anomaly struct {
	Property string `json:"property"`
}

// HasProperty reports whether the assembly carries the given property flag.
func (s *AssemblySummary) HasProperty(p string) bool {
	if s == nil {
		return false
	}
	for _, prop := range s.PropertyList {
		if prop == p {
			return true
		}
	}
	return false
}

// Annotated reports whether the assembly has an annotation in the archive
// matching its accession prefix (GenBank for GCA, RefSeq for GCF).
func (s *AssemblySummary) Annotated(accession string) bool {
	switch {
	case strings.HasPrefix(accession, "GCA"):
		return s.HasProperty("has_annotation")
	case strings.HasPrefix(accession, "GCF"):
		return s.HasProperty("refseq_has_annotation")
	}
	return false
}

type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// Client queries the Assembly database.
type Client struct {
	baseURL    string
	email      string
	tool       string
	httpClient *http.Client
}

// NewClient returns a Client, or nil when no email is configured: NCBI
// access is optional and the assembly checks are skipped without it.
func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.Email) == "" {
		return nil
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultURL
	}
	tool := cfg.Tool
	if tool == "" {
		tool = defaultTool
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      cfg.Email,
		tool:       tool,
		httpClient: httpClient,
	}
}

// Lookup returns the summary of the assembly whose accession equals accession.
// It returns ErrNotFound when the search has no hit, and a nil summary when
// hits exist but none carries exactly that accession.
func (c *Client) Lookup(ctx context.Context, accession string) (*AssemblySummary, error) {
	if c == nil {
		return nil, nil
	}
	if accession == "" {
		return nil, fmt.Errorf("accession cannot be empty")
	}

	var search esearchResponse
	q := url.Values{"db": {"assembly"}, "term": {accession}, "retmax": {"5"}}
	if err := c.get(ctx, "esearch.fcgi", q, &search); err != nil {
		return nil, err
	}
	ids := search.Result.IDList
	if len(ids) == 0 {
		return nil, ErrNotFound
	}

	for _, id := range ids {
		summary, err := c.summary(ctx, id)
		if err != nil {
			return nil, err
		}
		if summary.AssemblyAccession == accession {
			if len(ids) > 1 {
				slog.Debug("Several assemblies matched", "accession", accession, "count", len(ids), "using", id)
			}
			return summary, nil
		}
	}
	return nil, nil
}

func (c *Client) summary(ctx context.Context, id string) (*AssemblySummary, error) {
	var resp esummaryResponse
	q := url.Values{"db": {"assembly"}, "id": {id}, "report": {"full"}}
	if err := c.get(ctx, "esummary.fcgi", q, &resp); err != nil {
		return nil, err
	}
	raw, ok := resp.Result[id]
	if !ok {
		return nil, fmt.Errorf("no summary returned for assembly id %s", id)
	}
	summary := &AssemblySummary{}
	if err := json.Unmarshal(raw, summary); err != nil {
		return nil, fmt.Errorf("failed to parse assembly summary %s: %w", id, err)
	}
	return summary, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	q.Set("retmode", "json")
	q.Set("email", c.email)
	q.Set("tool", c.tool)
	u := c.baseURL + "/" + endpoint + "?" + q.Encode()
	slog.Debug("Entrez request", "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create entrez request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch from entrez: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read entrez response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("entrez returned status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse entrez response: %w", err)
	}
	return nil
}
