package github

import (
	"regexp"
	"strings"

	apperrors "github.com/abhigyan2003/github-repo-ai-agent/internal/errors"
)

var (
	// repoURLPattern matches a github.com/{owner}/{repo} reference anywhere
	// in the input, so full URLs, clone URLs, and bare paths all resolve.
	repoURLPattern = regexp.MustCompile(`github\.com/([^/\s]+)/([^/\s?#]+)`)

	ownerPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)
)

// RepoRef identifies one GitHub repository.
type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// URL returns the canonical web URL for the repository.
func (r RepoRef) URL() string {
	return "https://github.com/" + r.String()
}

// ParseRepoURL extracts the owner/name pair from any string containing a
// github.com repository reference. A trailing ".git" on the name is
// stripped so clone URLs and web URLs resolve to the same repository, and
// extra path segments, query strings, and fragments are ignored.
func ParseRepoURL(raw string) (RepoRef, error) {
	m := repoURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return RepoRef{}, apperrors.NewInvalidRepoURLError(raw)
	}

	owner := m[1]
	name := strings.TrimSuffix(m[2], ".git")

	if !ownerPattern.MatchString(owner) {
		return RepoRef{}, apperrors.NewInvalidRepoURLError(raw)
	}
	if name == "." || name == ".." || !namePattern.MatchString(name) {
		return RepoRef{}, apperrors.NewInvalidRepoURLError(raw)
	}

	return RepoRef{Owner: owner, Name: name}, nil
}
