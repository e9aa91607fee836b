// Package github proxies the GitHub REST API for the repository browser:
// listing repositories, reading files, collecting source files for a
// multi-file analysis and opening pull requests.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/oauth2"

	"code-assistant/internal/shared/metrics"
)

const (
	DefaultBaseURL = "https://api.github.com"

	reposPerPage = 100
	maxRepoPages = 10
	maxErrorBody = 512

	// DefaultMaxResponse covers a 1 MB file from the contents API once base64
	// and JSON encoded.
	DefaultMaxResponse = 8 << 20
)

// Client calls the GitHub API with one user's token.
type Client struct {
	baseURL string
	http    *http.Client
	// MaxResponse caps how many body bytes are read from one response.
	MaxResponse int64
}

// NewClient returns a client that authenticates every request with token.
func NewClient(ctx context.Context, baseURL, token string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        oauth2.NewClient(ctx, src),
		MaxResponse: DefaultMaxResponse,
	}
}

// ListRepositories returns the repositories visible to the token's user.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	var all []Repository
	for page := 1; page <= maxRepoPages; page++ {
		var batch []Repository
		path := fmt.Sprintf("/user/repos?per_page=%d&page=%d&sort=updated", reposPerPage, page)
		if err := c.do(ctx, "repositories", http.MethodGet, path, nil, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < reposPerPage {
			break
		}
	}
	if all == nil {
		all = []Repository{}
	}
	return all, nil
}

// Contents returns a directory listing or a decoded file at path.
func (c *Client) Contents(ctx context.Context, owner, repo, path string) (Contents, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "contents", http.MethodGet, contentsPath(owner, repo, path), nil, &raw); err != nil {
		return Contents{}, err
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return Contents{}, fmt.Errorf("decode listing: %w", err)
		}
		return Contents{Dir: entries}, nil
	}
	f, err := decodeFile(raw)
	if err != nil && !errors.Is(err, ErrUndecodable) {
		return Contents{}, err
	}
	return Contents{File: &f}, nil
}

// File returns the decoded text of one file.
func (c *Client) File(ctx context.Context, owner, repo, path string) (File, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "file", http.MethodGet, contentsPath(owner, repo, path), nil, &raw); err != nil {
		return File{}, err
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		return File{}, ErrNotAFile
	}
	return decodeFile(raw)
}

// CreatePullRequest opens a pull request.
func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, in PullRequestInput) (PullRequest, error) {
	var pr PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.do(ctx, "create_pr", http.MethodPost, path, in, &pr); err != nil {
		return PullRequest{}, err
	}
	return pr, nil
}

func (c *Client) listDir(ctx context.Context, owner, repo, path string) ([]Entry, error) {
	contents, err := c.Contents(ctx, owner, repo, path)
	if err != nil {
		return nil, err
	}
	if contents.File != nil {
		return nil, fmt.Errorf("%s is a file", path)
	}
	return contents.Dir, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.IncGitHubRequest(op, 0)
		return fmt.Errorf("github %s: %w", op, err)
	}
	defer resp.Body.Close()
	metrics.IncGitHubRequest(op, resp.StatusCode)

	limit := c.MaxResponse
	if limit <= 0 {
		limit = DefaultMaxResponse
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return fmt.Errorf("github %s read: %w", op, err)
	}
	if int64(len(raw)) > limit {
		return fmt.Errorf("github %s: %w", op, ErrResponseTooLarge)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Op: op, Status: resp.StatusCode, Message: apiMessage(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("github %s decode: %w", op, err)
	}
	return nil
}

func contentsPath(owner, repo, path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	p := fmt.Sprintf("/repos/%s/%s/contents", url.PathEscape(owner), url.PathEscape(repo))
	if joined := strings.Join(segments, "/"); joined != "" {
		p += "/" + joined
	}
	return p
}

type fileResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// decodeFile returns the file with its content decoded. Content that is not
// UTF-8 text yields the metadata and ErrUndecodable.
func decodeFile(raw []byte) (File, error) {
	var fr fileResponse
	if err := json.Unmarshal(raw, &fr); err != nil {
		return File{}, fmt.Errorf("decode file: %w", err)
	}
	f := File{Name: fr.Name, Path: fr.Path, Type: fr.Type, Size: fr.Size, SHA: fr.SHA, Encoding: fr.Encoding}
	if fr.Content == "" {
		return f, nil
	}
	if fr.Encoding != "base64" {
		return f, ErrUndecodable
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(fr.Content, "\n", ""))
	if err != nil || !utf8.Valid(decoded) {
		return f, ErrUndecodable
	}
	f.Content = string(decoded)
	return f, nil
}

func apiMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		return body.Message
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}
