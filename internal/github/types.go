package github

import (
	"encoding/json"
	"time"
)

// Repo is the subset of repository metadata the analyzer consumes.
type Repo struct {
	FullName        string   `json:"full_name"`
	Description     string   `json:"description"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	OpenIssuesCount int      `json:"open_issues_count"`
	Topics          []string `json:"topics"`
	HasPages        bool     `json:"has_pages"`
	DefaultBranch   string   `json:"default_branch"`
	HTMLURL         string   `json:"html_url"`
}

// Contributor is one entry of the repository contributors listing.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

// Commit is one entry of the repository commits listing.
type Commit struct {
	SHA    string       `json:"sha"`
	Commit CommitDetail `json:"commit"`
}

// CommitDetail carries the author-facing commit fields.
type CommitDetail struct {
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}

// CommitAuthor identifies who wrote a commit and when.
type CommitAuthor struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// PullRequest is one entry of the pull request listing.
type PullRequest struct {
	Number int    `json:"number"`
	State  string `json:"state"`
	Title  string `json:"title"`
}

// Issue is one entry of the issues listing. GitHub's issues endpoint also
// returns pull requests; those entries carry a pull_request marker.
type Issue struct {
	Number      int              `json:"number"`
	State       string           `json:"state"`
	Title       string           `json:"title"`
	Comments    int              `json:"comments"`
	PullRequest *json.RawMessage `json:"pull_request,omitempty"`
}

// IsPullRequest reports whether this listing entry is actually a pull request.
func (i Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

// fileContent is the wire shape of the readme/contents endpoints.
type fileContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}
