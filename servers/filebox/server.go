// Package filebox implements an MCP resource server over a shared directory.
// It exposes a greeting resource, a JSON listing of the directory's files, and
// per-file text and image resources.
package filebox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	mcp "github.com/Ramc26/agentic-resources"
	"github.com/gobwas/glob"
)

// GreetingURI is the fixed welcome resource.
const GreetingURI = "resource://greeting"

const (
	filePrefix  = "file:///"
	imagePrefix = "images://"
)

const greetingText = "Hello from the agentic-resources server! Read resource://files/list to see what is shared."

// Server serves resources from a single root directory. The file listing only
// exposes regular files whose names match the configured glob allow-list; all
// name lookups are confined to the root.
type Server struct {
	root  string
	globs []glob.Glob
}

// NewServer creates a resource server rooted at root. patterns is the glob
// allow-list applied to the file listing; when empty, every file is listed.
func NewServer(root string, patterns []string) (Server, error) {
	info, err := os.Stat(filepath.Clean(root))
	if err != nil {
		return Server{}, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return Server{}, fmt.Errorf("root is not a directory: %s", root)
	}

	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			return Server{}, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		globs = append(globs, compiled)
	}

	return Server{
		root:  filepath.Clean(root),
		globs: globs,
	}, nil
}

// ListResources implements mcp.ResourceServer.
func (s Server) ListResources(context.Context) ([]mcp.Resource, error) {
	resources := []mcp.Resource{
		{
			URI:         GreetingURI,
			Name:        "greeting",
			Description: "A friendly welcome message",
			MimeType:    "text/plain",
		},
		{
			URI:         mcp.ListFilesURI,
			Name:        "file-list",
			Description: "JSON array of shared file names",
			MimeType:    "application/json",
		},
	}

	names, err := s.listNames()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		resources = append(resources, mcp.Resource{
			URI:  filePrefix + name,
			Name: name,
		})
	}

	return resources, nil
}

// ReadResource implements mcp.ResourceServer.
func (s Server) ReadResource(_ context.Context, params mcp.ReadResourceParams) (mcp.ReadResourceResult, error) {
	switch {
	case params.URI == GreetingURI:
		return textResult(params.URI, "text/plain", greetingText), nil
	case params.URI == mcp.ListFilesURI:
		names, err := s.listNames()
		if err != nil {
			return mcp.ReadResourceResult{}, err
		}
		listing, err := json.Marshal(names)
		if err != nil {
			return mcp.ReadResourceResult{}, fmt.Errorf("failed to marshal file listing: %w", err)
		}
		return textResult(params.URI, "application/json", string(listing)), nil
	case strings.HasPrefix(params.URI, filePrefix):
		return s.readFile(params.URI, strings.TrimPrefix(params.URI, filePrefix))
	case strings.HasPrefix(params.URI, imagePrefix):
		return s.readImage(params.URI, strings.TrimPrefix(params.URI, imagePrefix))
	default:
		return mcp.ReadResourceResult{}, fmt.Errorf("unknown resource: %s", params.URI)
	}
}

func (s Server) readFile(uri, name string) (mcp.ReadResourceResult, error) {
	path, err := s.resolve(name)
	if err != nil {
		return mcp.ReadResourceResult{}, err
	}

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".txt", ".log", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return mcp.ReadResourceResult{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return textResult(uri, "text/plain", string(data)), nil
	default:
		return mcp.ReadResourceResult{}, fmt.Errorf("unsupported file type %q for %s", ext, name)
	}
}

func (s Server) readImage(uri, name string) (mcp.ReadResourceResult, error) {
	path, err := s.resolve(name)
	if err != nil {
		return mcp.ReadResourceResult{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.ReadResourceResult{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{
			{
				URI:      uri,
				MimeType: http.DetectContentType(data),
				Blob:     base64.StdEncoding.EncodeToString(data),
			},
		},
	}, nil
}

// resolve maps a client-supplied name to a path under the root, rejecting
// anything that would escape it.
func (s Server) resolve(name string) (string, error) {
	if name == "" || strings.Contains(name, "..") || filepath.IsAbs(name) {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	path := filepath.Join(s.root, filepath.FromSlash(name))
	if path != s.root && !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	return path, nil
}

func (s Server) listNames() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read root directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		for _, g := range s.globs {
			if g.Match(entry.Name()) {
				names = append(names, entry.Name())
				break
			}
		}
	}
	sort.Strings(names)

	return names, nil
}

func textResult(uri, mimeType, text string) mcp.ReadResourceResult {
	return mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{
			{
				URI:      uri,
				MimeType: mimeType,
				Text:     text,
			},
		},
	}
}
