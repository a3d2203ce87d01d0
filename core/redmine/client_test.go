package redmine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(Config{BaseURL: server.URL, Key: "secret", ProjectID: DefaultProjectID})
	require.NoError(t, err)
	return c
}

func TestNewClient_EmptyKey(t *testing.T) {
	t.Parallel()
	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redmine key cannot be empty")
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	c, err := NewClient(Config{Key: "k", BaseURL: "https://example.org/"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", c.BaseURL())

	c, err = NewClient(Config{Key: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.BaseURL())
}

func TestIssues_Success(t *testing.T) {
	t.Parallel()
	var gotQuery map[string]string
	var gotKey string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/issues.json", r.URL.Path)
		gotKey = r.Header.Get("X-Redmine-API-Key")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"issues": [
				{"id": 101, "subject": "Genome A", "status": {"id": 1, "name": "New"},
				 "tracker": {"id": 4, "name": "Dataset"},
				 "fixed_version": {"id": 300, "name": "Build 68"},
				 "custom_fields": [
					{"id": 92, "name": "Component DB", "multiple": true, "value": ["PlasmoDB"]},
					{"id": 110, "name": "Organism Abbreviation", "value": "pfal3D7"},
					{"id": 5, "name": "GFF 2 Load", "value": null}
				 ]}
			],
			"total_count": 1, "offset": 0, "limit": 100
		}`))
	}))

	filter := NewFilter(nil)
	filter.Set("team", "Data Processing (EBI)")
	issues, err := c.Issues(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "Data Processing (EBI)", gotQuery["cf_17"])
	assert.Equal(t, strconv.Itoa(DefaultProjectID), gotQuery["project_id"])
	assert.Equal(t, "0", gotQuery["offset"])

	require.Len(t, issues, 1)
	issue := issues[0]
	assert.Equal(t, 101, issue.ID)
	assert.Equal(t, "Build 68", issue.FixedVersionName())
	assert.Equal(t, "Dataset", issue.Tracker.Name)

	fields := CustomFields(&issue)
	assert.Equal(t, []string{"PlasmoDB"}, fields.List("Component DB"))
	assert.Equal(t, "pfal3D7", fields.String("Organism Abbreviation"))
	assert.True(t, fields.Has("GFF 2 Load"))
	assert.Empty(t, fields.String("GFF 2 Load"))
}

func TestIssues_Pagination(t *testing.T) {
	t.Parallel()
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var resp issuesResponse
		resp.TotalCount = 150
		n := 100
		if offset >= 100 {
			n = 50
		}
		for i := 0; i < n; i++ {
			resp.Issues = append(resp.Issues, Issue{ID: offset + i + 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))

	issues, err := c.Issues(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, issues, 150)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 150, issues[149].ID)
}

func TestIssues_Cap(t *testing.T) {
	t.Parallel()
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		// A server page size that does not divide the cap.
		var resp issuesResponse
		resp.TotalCount = 10000
		for i := 0; i < 150; i++ {
			resp.Issues = append(resp.Issues, Issue{ID: offset + i + 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))

	issues, err := c.Issues(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, issues, redmineMaxIssues)
	assert.Equal(t, redmineMaxIssues, issues[len(issues)-1].ID)
	assert.Equal(t, 34, calls)
}

func TestIssues_HTTPError(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`unauthorized`))
	}))

	_, err := c.Issues(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redmine API returned status 401")
	assert.False(t, IsNotFound(err))
}

func TestIssues_InvalidJSON(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))

	_, err := c.Issues(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse redmine response")
}

func TestIssue_NotFound(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, http.NotFoundHandler())

	_, err := c.Issue(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestIssue_Success(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/issues/42.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"issue": {"id": 42, "subject": "RNA-Seq", "assigned_to": {"id": 7, "name": "Jane"}}}`))
	}))

	issue, err := c.Issue(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, issue.ID)
	assert.Equal(t, "Jane", issue.AssigneeName())
	assert.Empty(t, issue.FixedVersionName())
}

func TestBuildVersionID(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/1976/versions.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"versions": [{"id": 10, "name": "Build 67"}, {"id": 11, "name": "Build 68"}]}`))
	}))

	id, err := c.BuildVersionID(context.Background(), 68)
	require.NoError(t, err)
	assert.Equal(t, 11, id)

	_, err = c.BuildVersionID(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no version named "Build 99"`)
}

func TestUpdateCustomValue(t *testing.T) {
	t.Parallel()
	var gotMethod, gotPath string
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))

	issue := &Issue{ID: 5, CustomFields: []CustomField{StringField(110, "Organism Abbreviation", "")}}
	err := c.UpdateCustomValue(context.Background(), issue, "Organism Abbreviation", "pfal3D7")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/issues/5.json", gotPath)
	fields := gotBody["issue"].(map[string]any)["custom_fields"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, float64(110), fields[0].(map[string]any)["id"])
	assert.Equal(t, "pfal3D7", fields[0].(map[string]any)["value"])
}

func TestUpdateCustomValue_UnknownField(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, http.NotFoundHandler())
	err := c.UpdateCustomValue(context.Background(), &Issue{ID: 5}, "Nope", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't find custom field named Nope")
}

func TestClient_NewFilter(t *testing.T) {
	t.Parallel()
	c, err := NewClient(Config{Key: "k", FieldMap: map[string]string{"team": "cf_99"}})
	require.NoError(t, err)
	f := c.NewFilter()
	f.Set("team", "EBI")
	f.Set("status", "open")
	assert.Equal(t, "EBI", f.Values().Get("cf_99"))
	assert.Equal(t, "open", f.Values().Get("status"))

	c, err = NewClient(Config{Key: "k"})
	require.NoError(t, err)
	f = c.NewFilter()
	f.Set("team", "EBI")
	assert.Equal(t, "EBI", f.Values().Get("cf_17"))
}
