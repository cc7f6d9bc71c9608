// Package ingest is the repository ingestor: given a repository URL it
// produces a Snapshot (file tree, README, a bounded selection of files).
// Carries over internal/ingest's URLIngester shape (direct-fetch-then-
// fallback, its Content struct, its size/word-count helpers), generalized
// from "fetch one article page" to "fetch a repository's textual surface
// via a hosting provider's REST API".
package ingest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"repocast/internal/apierr"
	"repocast/internal/hashutil"
)

const (
	maxTreeNodes  = 5000
	maxFileBytes  = 64 * 1024
	maxSelectedK  = 20
	treeDepthElide = 3
)

// NodeKind is the type of a tree entry.
type NodeKind string

const (
	NodeFile NodeKind = "file"
	NodeDir  NodeKind = "dir"
)

// TreeNode is one path in the repository's file tree.
type TreeNode struct {
	Path string   `json:"path"`
	Kind NodeKind `json:"kind"`
}

// Snapshot is immutable per (URL, commit-or-default-branch-at-fetch-time),
// built on demand and held in memory for the duration of a request.
type Snapshot struct {
	CanonicalURL  string
	Owner         string
	Name          string
	DisplayName   string
	DefaultBranch string
	Tree          []TreeNode
	TreeTruncated bool
	README        string
	SelectedFiles map[string]string // path -> truncated content
	ContentHash   string
}

// manifestNames are always included regardless of the selection cap —
// when multiple manifests exist, all are included, since they're small.
var manifestNames = map[string]bool{
	"package.json":     true,
	"pyproject.toml":   true,
	"Cargo.toml":       true,
	"go.mod":           true,
	"pom.xml":          true,
	"build.gradle":     true,
	"Gemfile":          true,
	"composer.json":    true,
	"requirements.txt": true,
}

// Ingester fetches a Snapshot for a repository URL.
type Ingester struct {
	httpClient *http.Client
	token      string
}

func NewIngester(token string) *Ingester {
	return &Ingester{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
	}
}

// Parse implements the `parse(url) -> Snapshot` operation.
func (g *Ingester) Parse(ctx context.Context, repoURL string) (*Snapshot, error) {
	owner, name, err := parseRepoURL(repoURL)
	if err != nil {
		return nil, apierr.New(apierr.KindInvalidInput, "ingest", "invalid repository URL", err)
	}

	branch, err := g.defaultBranch(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	tree, truncated, err := g.fetchTree(ctx, owner, name, branch)
	if err != nil {
		return nil, err
	}

	readme := g.fetchReadme(ctx, owner, name, branch)
	if readme == "" {
		readme = g.readmeFallback(ctx, owner, name, branch)
	}

	selected := g.selectAndFetchFiles(ctx, owner, name, branch, tree)

	snap := &Snapshot{
		CanonicalURL:  normalizeRepoURL(repoURL),
		Owner:         owner,
		Name:          name,
		DisplayName:   owner + "/" + name,
		DefaultBranch: branch,
		Tree:          tree,
		TreeTruncated: truncated,
		README:        readme,
		SelectedFiles: selected,
	}
	snap.ContentHash = computeContentHash(snap)
	return snap, nil
}

func parseRepoURL(raw string) (owner, name string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("URL path must be /<owner>/<name>, got %q", u.Path)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// normalizeRepoURL lowercases the host and strips trailing slashes and
// .git so equivalent URLs hash to the same cache key.
func normalizeRepoURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSuffix(strings.TrimRight(raw, "/"), ".git"))
	}
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(strings.TrimRight(u.Path, "/"), ".git")
	return u.String()
}

type repoInfoResponse struct {
	DefaultBranch string `json:"default_branch"`
}

func (g *Ingester) defaultBranch(ctx context.Context, owner, name string) (string, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s", owner, name)
	var out repoInfoResponse
	status, err := g.getJSON(ctx, apiURL, &out)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", apierr.New(apierr.KindUpstreamNotFound, "ingest", "repository not found", nil)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return "", apierr.New(apierr.KindUpstreamUnauthorized, "ingest", "repository requires authentication", nil)
	}
	if status == http.StatusTooManyRequests {
		return "", apierr.New(apierr.KindUpstreamRateLimited, "ingest", "hosting provider rate-limited this request", nil)
	}
	if out.DefaultBranch == "" {
		return "main", nil
	}
	return out.DefaultBranch, nil
}

type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"` // "blob" | "tree"
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

func (g *Ingester) fetchTree(ctx context.Context, owner, name, branch string) ([]TreeNode, bool, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/git/trees/%s?recursive=1", owner, name, branch)
	var out treeResponse
	status, err := g.getJSON(ctx, apiURL, &out)
	if err != nil {
		return nil, false, err
	}
	if status == http.StatusTooManyRequests {
		return nil, false, apierr.New(apierr.KindUpstreamRateLimited, "ingest", "hosting provider rate-limited tree fetch", nil)
	}
	if status != http.StatusOK {
		return nil, false, apierr.New(apierr.KindUpstreamNetwork, "ingest", fmt.Sprintf("tree fetch returned HTTP %d", status), nil)
	}

	nodes := make([]TreeNode, 0, len(out.Tree))
	for _, e := range out.Tree {
		kind := NodeFile
		if e.Type == "tree" {
			kind = NodeDir
		}
		nodes = append(nodes, TreeNode{Path: e.Path, Kind: kind})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })

	truncated := out.Truncated
	if len(nodes) > maxTreeNodes {
		nodes = elideDeepEntries(nodes, maxTreeNodes)
		truncated = true
	}
	return nodes, truncated, nil
}

// elideDeepEntries keeps shallow entries and drops deeper ones once the
// cap is reached, replacing them with a "... (truncated)" marker.
func elideDeepEntries(nodes []TreeNode, cap int) []TreeNode {
	if len(nodes) <= cap {
		return nodes
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return strings.Count(nodes[i].Path, "/") < strings.Count(nodes[j].Path, "/")
	})
	kept := nodes
	if len(kept) > cap {
		kept = kept[:cap]
	}
	kept = append(kept, TreeNode{Path: "… (truncated)", Kind: NodeFile})
	sort.Slice(kept, func(i, j int) bool { return kept[i].Path < kept[j].Path })
	return kept
}

func (g *Ingester) fetchReadme(ctx context.Context, owner, name, branch string) string {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/readme?ref=%s", owner, name, branch)
	var out struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	status, err := g.getJSON(ctx, apiURL, &out)
	if err != nil || status != http.StatusOK {
		return ""
	}
	if out.Encoding != "base64" {
		return out.Content
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(out.Content, "\n", ""))
	if err != nil {
		return ""
	}
	return string(decoded)
}

// readmeFallback mirrors URLIngester's fallback ladder (direct fetch ->
// go-readability extraction) when the REST README endpoint is
// unavailable, by extracting the rendered repo page instead.
func (g *Ingester) readmeFallback(ctx context.Context, owner, name, branch string) string {
	pageURL := fmt.Sprintf("https://github.com/%s/%s/tree/%s", owner, name, branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; repocast/1.0)")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(io.LimitReader(resp.Body, maxFileBytes*4), parsed)
	if err != nil {
		return ""
	}
	slog.Info("README recovered via readability fallback", "owner", owner, "name", name)
	return article.TextContent
}

// selectAndFetchFiles picks up to K representative files by path heuristic
// (all manifests, root entry points, one level of src/) and fetches their
// content, skipping anything over the size cap or binary.
func (g *Ingester) selectAndFetchFiles(ctx context.Context, owner, name, branch string, tree []TreeNode) map[string]string {
	selected := map[string]string{}
	var candidates []string

	for _, n := range tree {
		if n.Kind != NodeFile {
			continue
		}
		base := n.Path
		if idx := strings.LastIndex(base, "/"); idx >= 0 {
			base = base[idx+1:]
		}
		depth := strings.Count(n.Path, "/")
		switch {
		case manifestNames[base]:
			candidates = append([]string{n.Path}, candidates...)
		case depth == 0:
			candidates = append(candidates, n.Path)
		case depth == 1 && (strings.HasPrefix(n.Path, "src/") || strings.HasPrefix(n.Path, "cmd/") || strings.HasPrefix(n.Path, "lib/")):
			candidates = append(candidates, n.Path)
		}
	}

	count := 0
	for _, path := range candidates {
		base := path
		if idx := strings.LastIndex(base, "/"); idx >= 0 {
			base = base[idx+1:]
		}
		if count >= maxSelectedK && !manifestNames[base] {
			break
		}
		content, ok := g.fetchFileIfAllowed(ctx, owner, name, branch, path)
		if !ok {
			continue
		}
		selected[path] = content
		count++
	}
	return selected
}

func (g *Ingester) fetchFileIfAllowed(ctx context.Context, owner, name, branch, path string) (string, bool) {
	rawURL := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", owner, name, branch, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	if resp.ContentLength > maxFileBytes {
		return "", false
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileBytes))
	if err != nil {
		return "", false
	}
	if looksBinary(data) {
		return "", false
	}
	return string(data), true
}

func looksBinary(data []byte) bool {
	n := len(data)
	if n > 512 {
		n = 512
	}
	for _, b := range data[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}

// getJSON fetches apiURL and decodes the JSON body into out, returning the
// HTTP status code even on a non-2xx response so callers can classify it.
func (g *Ingester) getJSON(ctx context.Context, apiURL string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return 0, apierr.New(apierr.KindUpstreamNetwork, "ingest", "build request", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, apierr.New(apierr.KindUpstreamNetwork, "ingest", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, apierr.New(apierr.KindUpstreamNetwork, "ingest", "decode response", err)
		}
	}
	return resp.StatusCode, nil
}

func computeContentHash(snap *Snapshot) string {
	h := hashutil.NewHasher()
	h.WriteString(snap.Owner)
	h.WriteString(snap.Name)
	h.WriteString(snap.DefaultBranch)
	for _, n := range snap.Tree {
		h.WriteString(string(n.Kind) + ":" + n.Path)
	}
	h.WriteString(snap.README)
	paths := make([]string, 0, len(snap.SelectedFiles))
	for p := range snap.SelectedFiles {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		h.WriteString(p)
		h.WriteString(snap.SelectedFiles[p])
	}
	return h.Sum()
}
