package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhigyan2003/github-repo-ai-agent/internal/analysis"
	apperrors "github.com/abhigyan2003/github-repo-ai-agent/internal/errors"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/github"
)

// newForgeServer serves a mid-sized fixture for octocat/hello-world. The
// readme endpoints are intentionally absent so that path degrades to zero.
func newForgeServer(t *testing.T) *httptest.Server {
	t.Helper()

	prMarker := json.RawMessage(`{}`)
	issues := make([]github.Issue, 10)
	for i := range issues {
		issues[i] = github.Issue{Number: i + 1, State: "open"}
		if i < 2 {
			issues[i].PullRequest = &prMarker
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, github.Repo{
			FullName:        "octocat/hello-world",
			StargazersCount: 2500,
			ForksCount:      500,
			OpenIssuesCount: 10,
			HasPages:        true,
		})
	})
	mux.HandleFunc("/repos/octocat/hello-world/contributors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, make([]github.Contributor, 25))
	})
	mux.HandleFunc("/repos/octocat/hello-world/commits", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, make([]github.Commit, 50))
	})
	mux.HandleFunc("/repos/octocat/hello-world/pulls", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") == "open" {
			writeJSON(w, make([]github.PullRequest, 5))
			return
		}
		writeJSON(w, make([]github.PullRequest, 20))
	})
	mux.HandleFunc("/repos/octocat/hello-world/issues", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, issues)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newAnalyzeCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestAnalyzeCommandJSON(t *testing.T) {
	forge := newForgeServer(t)
	t.Setenv("GITHUB_API_URL", forge.URL)
	t.Setenv("GITHUB_TOKEN", "")

	out, _, err := execute(t, "https://github.com/octocat/hello-world", "--json")
	require.NoError(t, err)

	var result analysis.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.Equal(t, "octocat", result.Owner)
	assert.Equal(t, "hello-world", result.Repo)
	assert.Equal(t, 0.0, result.ReadmeQuality)
	assert.Equal(t, 0.6, result.HealthScore)
	assert.Equal(t, 0.38, result.ActivityScore)
	assert.Equal(t, 0.065, result.EngagementScore)
	assert.Equal(t, analysis.LevelIntermediate, result.Level)
	assert.NotEmpty(t, result.Summary)
	assert.False(t, result.Details.ReadmePresent)
	assert.Equal(t, 25, result.Details.ContributorsCount)
	assert.Equal(t, 8, result.Details.RecentIssuesCount)
	assert.Equal(t, 5, result.Details.OpenPRsCount)
}

func TestAnalyzeCommandReport(t *testing.T) {
	forge := newForgeServer(t)
	t.Setenv("GITHUB_API_URL", forge.URL)
	t.Setenv("GITHUB_TOKEN", "")

	out, _, err := execute(t, "https://github.com/octocat/hello-world")
	require.NoError(t, err)

	assert.Contains(t, out, "octocat/hello-world")
	assert.Contains(t, out, "Intermediate")
	assert.Contains(t, out, "README quality")
	assert.Contains(t, out, "Signals")
	assert.Contains(t, out, "Next steps")
	assert.Contains(t, out, "Review open PRs to understand project conventions")
	assert.Contains(t, out, "0.0/10")
}

func TestAnalyzeCommandRejectsInvalidURL(t *testing.T) {
	t.Setenv("GITHUB_API_URL", "http://127.0.0.1:0")
	t.Setenv("GITHUB_TOKEN", "")

	_, _, err := execute(t, "https://example.com/not/github")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CategoryValidation, appErr.Category)
	assert.Equal(t, "Invalid GitHub URL", appErr.Msg)
}

func TestAnalyzeCommandRequiresExactlyOneArg(t *testing.T) {
	_, _, err := execute(t)
	require.Error(t, err)

	_, _, err = execute(t, "https://github.com/a/b", "https://github.com/c/d")
	require.Error(t, err)
}
