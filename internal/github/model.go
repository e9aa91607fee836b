package github

import "time"

// Repository is the subset of GitHub's repository object the UI shows.
type Repository struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	FullName    string     `json:"full_name"`
	Description *string    `json:"description"`
	Private     bool       `json:"private"`
	HTMLURL     string     `json:"html_url"`
	Language    *string    `json:"language"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// Entry is one item of a directory listing.
type Entry struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	Type        string  `json:"type"`
	Size        int64   `json:"size"`
	SHA         string  `json:"sha"`
	DownloadURL *string `json:"download_url"`
}

// File is a decoded file.
type File struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type,omitempty"`
	Size     int64  `json:"size"`
	SHA      string `json:"sha,omitempty"`
	Content  string `json:"content"`
	Encoding string `json:"encoding,omitempty"`
}

// Contents is either a directory listing or a single file.
type Contents struct {
	Dir  []Entry
	File *File
}

// PullRequestInput opens a pull request from Head into Base.
type PullRequestInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

// PullRequest is the created pull request.
type PullRequest struct {
	ID      int64  `json:"id"`
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	State   string `json:"state"`
}

// CollectOptions bounds a repository walk.
type CollectOptions struct {
	Extensions  []string
	MaxFiles    int
	Concurrency int
}

// DefaultExtensions are collected when a request names none.
var DefaultExtensions = []string{".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".cpp", ".c", ".cs"}

const (
	DefaultMaxFiles    = 50
	DefaultConcurrency = 4
)
