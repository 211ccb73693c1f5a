package web_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mcp "github.com/Ramc26/agentic-resources"
	"github.com/Ramc26/agentic-resources/servers/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callParams(t *testing.T, name string, args map[string]any) mcp.CallToolParams {
	t.Helper()
	argsBs, err := json.Marshal(args)
	require.NoError(t, err)
	return mcp.CallToolParams{Name: name, Arguments: argsBs}
}

func TestListTools(t *testing.T) {
	srv := web.NewServer()

	tools, err := srv.ListTools(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"web_get", "web_search", "get_beeceptor", "validate_contact"}, names)
}

func TestWebGet(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("page body"))
	}))
	defer page.Close()

	srv := web.NewServer()
	result, err := srv.CallTool(context.Background(), callParams(t, "web_get", map[string]any{"url": page.URL}))
	require.NoError(t, err)
	assert.Equal(t, "page body", result.Text)
}

func TestWebGetErrors(t *testing.T) {
	srv := web.NewServer()

	_, err := srv.CallTool(context.Background(), callParams(t, "web_get", map[string]any{}))
	assert.ErrorContains(t, err, "requires a url")

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer failing.Close()

	_, err = srv.CallTool(context.Background(), callParams(t, "web_get", map[string]any{"url": failing.URL}))
	assert.ErrorContains(t, err, "unexpected status 500")
}

func TestWebSearch(t *testing.T) {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		json.NewEncoder(w).Encode(map[string]any{
			"AbstractText": "Go programming language",
			"AbstractURL":  "https://go.dev",
			"RelatedTopics": []map[string]string{
				{"Text": "Gopher", "FirstURL": "https://go.dev/blog/gopher"},
				{"Text": "no url here"},
				{"Text": "Modules", "FirstURL": "https://go.dev/ref/mod"},
			},
		})
	}))
	defer search.Close()

	srv := web.NewServer(web.WithSearchEndpoint(search.URL))
	result, err := srv.CallTool(context.Background(), callParams(t, "web_search", map[string]any{
		"query":       "golang",
		"max_results": 2,
	}))
	require.NoError(t, err)

	var results []web.SearchResult
	require.NoError(t, json.Unmarshal([]byte(result.Text), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "Go programming language", results[0].Title)
	assert.Equal(t, "https://go.dev/blog/gopher", results[1].Href)
}

func TestGetBeeceptor(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer endpoint.Close()

	srv := web.NewServer(web.WithBeeceptorEndpoint(endpoint.URL))
	result, err := srv.CallTool(context.Background(), callParams(t, "get_beeceptor", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, result.Text)
}

func TestValidateContact(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		switch r.URL.Path {
		case "/validatephone":
			assert.Equal(t, "+12065550100", r.URL.Query().Get("number"))
			w.Write([]byte(`{"is_valid":true}`))
		case "/validateemail":
			assert.Equal(t, "a@b.co", r.URL.Query().Get("email"))
			w.Write([]byte(`{"is_valid":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer api.Close()

	srv := web.NewServer(
		web.WithValidationEndpoint(api.URL+"/"),
		web.WithAPIKey("test-key"),
	)

	for _, tt := range []struct {
		typ   string
		input string
	}{
		{typ: "phone", input: "+12065550100"},
		{typ: "email", input: "a@b.co"},
	} {
		result, err := srv.CallTool(context.Background(), callParams(t, "validate_contact", map[string]any{
			"input": tt.input,
			"type":  tt.typ,
		}))
		require.NoError(t, err, tt.typ)
		assert.JSONEq(t, `{"is_valid":true}`, result.Text)
	}
}

func TestValidateContactErrors(t *testing.T) {
	srv := web.NewServer(web.WithAPIKey("test-key"))

	_, err := srv.CallTool(context.Background(), callParams(t, "validate_contact", map[string]any{
		"input": "x",
		"type":  "fax",
	}))
	assert.ErrorContains(t, err, "unsupported contact type")

	noKey := web.NewServer()
	_, err = noKey.CallTool(context.Background(), callParams(t, "validate_contact", map[string]any{
		"input": "x",
		"type":  "email",
	}))
	assert.ErrorContains(t, err, "API key")
}

func TestUnknownTool(t *testing.T) {
	srv := web.NewServer()

	_, err := srv.CallTool(context.Background(), callParams(t, "nope", nil))
	assert.ErrorContains(t, err, "tool not found")
}
