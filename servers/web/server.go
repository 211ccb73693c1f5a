// Package web implements an MCP tool server for simple outbound HTTP tools:
// page fetches, DuckDuckGo searches, a fixed test endpoint, and contact
// validation through the API-Ninjas service.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	mcp "github.com/Ramc26/agentic-resources"
)

const (
	defaultSearchURL     = "https://api.duckduckgo.com/"
	defaultBeeceptorURL  = "https://mcp-demo.free.beeceptor.com/"
	defaultValidationURL = "https://api.api-ninjas.com/v1/"

	// Response bodies are capped so a misbehaving endpoint cannot balloon a
	// tool result.
	maxBodySize = 1 << 20
)

// Server implements mcp.ToolServer. All endpoints and the HTTP client are
// injectable for tests.
type Server struct {
	httpClient    *http.Client
	searchURL     string
	beeceptorURL  string
	validationURL string
	apiKey        string
}

// Option is a function that configures a web server.
type Option func(*Server)

// WithHTTPClient sets the HTTP client used for all outbound requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *Server) {
		s.httpClient = httpClient
	}
}

// WithSearchEndpoint overrides the search endpoint.
func WithSearchEndpoint(u string) Option {
	return func(s *Server) {
		s.searchURL = u
	}
}

// WithBeeceptorEndpoint overrides the test endpoint.
func WithBeeceptorEndpoint(u string) Option {
	return func(s *Server) {
		s.beeceptorURL = u
	}
}

// WithValidationEndpoint overrides the API-Ninjas base URL.
func WithValidationEndpoint(u string) Option {
	return func(s *Server) {
		s.validationURL = u
	}
}

// WithAPIKey sets the API-Ninjas key used by validate_contact.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// NewServer creates a web tool server with default public endpoints.
func NewServer(options ...Option) Server {
	s := Server{
		httpClient:    http.DefaultClient,
		searchURL:     defaultSearchURL,
		beeceptorURL:  defaultBeeceptorURL,
		validationURL: defaultValidationURL,
	}

	for _, opt := range options {
		opt(&s)
	}

	return s
}

var toolList = []mcp.Tool{
	{
		Name:        "web_get",
		Description: "Fetch a URL and return the response body as text",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "url": {"type": "string", "description": "URL to fetch"}
  },
  "required": ["url"]
}`),
	},
	{
		Name:        "web_search",
		Description: "Search the web and return a JSON list of {title, href} results",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "Search query"},
    "max_results": {"type": "integer", "description": "Maximum number of results", "default": 5}
  },
  "required": ["query"]
}`),
	},
	{
		Name:        "get_beeceptor",
		Description: "Fetch the fixed test endpoint and return its body",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	},
	{
		Name:        "validate_contact",
		Description: "Validate a phone number or email address",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "input": {"type": "string", "description": "The phone number or email to validate"},
    "type": {"type": "string", "enum": ["phone", "email"]}
  },
  "required": ["input", "type"]
}`),
	},
}

// ListTools implements mcp.ToolServer.
func (s Server) ListTools(context.Context) ([]mcp.Tool, error) {
	return toolList, nil
}

// CallTool implements mcp.ToolServer.
func (s Server) CallTool(ctx context.Context, params mcp.CallToolParams) (mcp.CallToolResult, error) {
	switch params.Name {
	case "web_get":
		return s.webGet(ctx, params)
	case "web_search":
		return s.webSearch(ctx, params)
	case "get_beeceptor":
		return s.getBeeceptor(ctx)
	case "validate_contact":
		return s.validateContact(ctx, params)
	default:
		return mcp.CallToolResult{}, fmt.Errorf("tool not found: %s", params.Name)
	}
}

func (s Server) webGet(ctx context.Context, params mcp.CallToolParams) (mcp.CallToolResult, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(params.Arguments, &args); err != nil {
		return mcp.CallToolResult{}, fmt.Errorf("invalid web_get arguments: %w", err)
	}
	if args.URL == "" {
		return mcp.CallToolResult{}, fmt.Errorf("web_get requires a url")
	}

	body, err := s.fetch(ctx, args.URL, nil)
	if err != nil {
		return mcp.CallToolResult{}, err
	}
	return mcp.CallToolResult{Text: body}, nil
}

// ddgResponse is the slice of the DuckDuckGo instant-answer payload we care
// about.
type ddgResponse struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// SearchResult is one entry of web_search's JSON output.
type SearchResult struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

func (s Server) webSearch(ctx context.Context, params mcp.CallToolParams) (mcp.CallToolResult, error) {
	var args struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.Unmarshal(params.Arguments, &args); err != nil {
		return mcp.CallToolResult{}, fmt.Errorf("invalid web_search arguments: %w", err)
	}
	if args.Query == "" {
		return mcp.CallToolResult{}, fmt.Errorf("web_search requires a query")
	}
	if args.MaxResults <= 0 {
		args.MaxResults = 5
	}

	q := url.Values{}
	q.Set("q", args.Query)
	q.Set("format", "json")
	q.Set("no_html", "1")

	body, err := s.fetch(ctx, s.searchURL+"?"+q.Encode(), nil)
	if err != nil {
		return mcp.CallToolResult{}, err
	}

	var ddg ddgResponse
	if err := json.Unmarshal([]byte(body), &ddg); err != nil {
		return mcp.CallToolResult{}, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]SearchResult, 0, args.MaxResults)
	if ddg.AbstractText != "" && ddg.AbstractURL != "" {
		results = append(results, SearchResult{Title: ddg.AbstractText, Href: ddg.AbstractURL})
	}
	for _, topic := range ddg.RelatedTopics {
		if len(results) >= args.MaxResults {
			break
		}
		if topic.Text == "" || topic.FirstURL == "" {
			continue
		}
		results = append(results, SearchResult{Title: topic.Text, Href: topic.FirstURL})
	}

	out, err := json.Marshal(results)
	if err != nil {
		return mcp.CallToolResult{}, fmt.Errorf("failed to marshal search results: %w", err)
	}
	return mcp.CallToolResult{Text: string(out)}, nil
}

func (s Server) getBeeceptor(ctx context.Context) (mcp.CallToolResult, error) {
	body, err := s.fetch(ctx, s.beeceptorURL, nil)
	if err != nil {
		return mcp.CallToolResult{}, err
	}
	return mcp.CallToolResult{Text: body}, nil
}

func (s Server) validateContact(ctx context.Context, params mcp.CallToolParams) (mcp.CallToolResult, error) {
	var args struct {
		Input string `json:"input"`
		Type  string `json:"type"`
	}
	if err := json.Unmarshal(params.Arguments, &args); err != nil {
		return mcp.CallToolResult{}, fmt.Errorf("invalid validate_contact arguments: %w", err)
	}
	if s.apiKey == "" {
		return mcp.CallToolResult{}, fmt.Errorf("validation API key is not configured")
	}

	var endpoint string
	q := url.Values{}
	switch args.Type {
	case "phone":
		endpoint = s.validationURL + "validatephone"
		q.Set("number", args.Input)
	case "email":
		endpoint = s.validationURL + "validateemail"
		q.Set("email", args.Input)
	default:
		return mcp.CallToolResult{}, fmt.Errorf("unsupported contact type %q, want phone or email", args.Type)
	}

	body, err := s.fetch(ctx, endpoint+"?"+q.Encode(), map[string]string{"X-Api-Key": s.apiKey})
	if err != nil {
		return mcp.CallToolResult{}, err
	}
	return mcp.CallToolResult{Text: body}, nil
}

func (s Server) fetch(ctx context.Context, target string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response from %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, target, strings.TrimSpace(string(body)))
	}

	return string(body), nil
}
