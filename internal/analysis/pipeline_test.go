package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/abhigyan2003/github-repo-ai-agent/internal/errors"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/github"
)

type fakeFetcher struct {
	repo         *github.Repo
	repoErr      error
	readme       string
	readmeErr    error
	contributors []github.Contributor
	contribErr   error
	commits      []github.Commit
	commitsErr   error
	prsByState   map[string][]github.PullRequest
	prsErr       error
	issues       []github.Issue
	issuesErr    error
}

func (f *fakeFetcher) Repo(context.Context, string, string) (*github.Repo, error) {
	return f.repo, f.repoErr
}

func (f *fakeFetcher) Readme(context.Context, string, string) (string, error) {
	return f.readme, f.readmeErr
}

func (f *fakeFetcher) Contributors(context.Context, string, string) ([]github.Contributor, error) {
	return f.contributors, f.contribErr
}

func (f *fakeFetcher) Commits(context.Context, string, string) ([]github.Commit, error) {
	return f.commits, f.commitsErr
}

func (f *fakeFetcher) PullRequests(_ context.Context, _, _, state string) ([]github.PullRequest, error) {
	return f.prsByState[state], f.prsErr
}

func (f *fakeFetcher) Issues(context.Context, string, string, string) ([]github.Issue, error) {
	return f.issues, f.issuesErr
}

func contributors(n int) []github.Contributor {
	out := make([]github.Contributor, n)
	for i := range out {
		out[i] = github.Contributor{Login: "user", Contributions: 1}
	}
	return out
}

func commits(n int) []github.Commit {
	return make([]github.Commit, n)
}

func pullRequests(n int) []github.PullRequest {
	return make([]github.PullRequest, n)
}

func openIssues(n int) []github.Issue {
	return make([]github.Issue, n)
}

func fullReadme() string {
	return "# Hello World\n\n## Installation\n\nRun the installer.\n\n## License\n\nMIT\n\n## Contributing\n\nPRs welcome.\n\n" +
		strings.Repeat("More detail. ", 40)
}

func TestAnalyzeMaximalSignals(t *testing.T) {
	fetcher := &fakeFetcher{
		repo: &github.Repo{
			FullName:        "octocat/hello-world",
			StargazersCount: 10000,
			ForksCount:      2000,
			Topics:          []string{"ci"},
		},
		readme:       fullReadme(),
		contributors: contributors(75),
		commits:      commits(100),
		prsByState: map[string][]github.PullRequest{
			"all":  pullRequests(150),
			"open": pullRequests(50),
		},
		issues: openIssues(150),
	}

	result, err := NewRunner(fetcher).Analyze(context.Background(), "https://github.com/octocat/hello-world")
	require.NoError(t, err)

	assert.Equal(t, "octocat", result.Owner)
	assert.Equal(t, "hello-world", result.Repo)
	assert.Equal(t, 1.0, result.ReadmeQuality)
	assert.Equal(t, 1.0, result.HealthScore)
	assert.Equal(t, 1.0, result.ActivityScore)
	assert.Equal(t, 1.0, result.EngagementScore)
	assert.Equal(t, LevelAdvanced, result.Level)
	assert.Equal(t, []string{
		"Propose architectural improvements or refactors",
		"Review and mentor on PRs",
		"Optimize CI/CD, performance, or reliability",
	}, result.Recommendations)

	assert.Equal(t, Details{
		ReadmePresent:     true,
		ContributorsCount: 75,
		CommitsSample:     100,
		PRsSample:         150,
		RecentIssuesCount: 150,
		OpenPRsCount:      50,
	}, result.Details)

	assert.Equal(t,
		"Repo octocat/hello-world\nREADME quality: 1.0\nHealth score: 1.0\nActivity score: 1.0\nEngagement score: 1.0\nLevel: Advanced",
		result.Summary)
}

func TestAnalyzeDegradesWhenEveryFetchFails(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &fakeFetcher{
		repoErr:    boom,
		readmeErr:  boom,
		contribErr: boom,
		commitsErr: boom,
		prsErr:     boom,
		issuesErr:  boom,
	}

	result, err := NewRunner(fetcher).Analyze(context.Background(), "https://github.com/octocat/ghost-town")
	require.NoError(t, err)

	assert.Equal(t, "octocat", result.Owner)
	assert.Equal(t, "ghost-town", result.Repo)
	assert.Zero(t, result.ReadmeQuality)
	assert.Zero(t, result.HealthScore)
	assert.Zero(t, result.ActivityScore)
	assert.Zero(t, result.EngagementScore)
	assert.Equal(t, LevelBeginner, result.Level)
	assert.False(t, result.Details.ReadmePresent)
	assert.Equal(t,
		"Repo octocat/ghost-town\nREADME quality: 0.0\nHealth score: 0.0\nActivity score: 0.0\nEngagement score: 0.0\nLevel: Beginner",
		result.Summary)
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		message string
	}{
		{name: "empty", rawURL: "", message: "repo_url is required"},
		{name: "whitespace only", rawURL: "   \n\t", message: "repo_url is required"},
		{name: "not a github url", rawURL: "https://example.com/foo/bar", message: "Invalid GitHub URL"},
		{name: "owner only", rawURL: "https://github.com/lonely", message: "Invalid GitHub URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewRunner(&fakeFetcher{}).Analyze(context.Background(), tt.rawURL)
			require.Error(t, err)
			assert.Nil(t, result)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.CategoryValidation, appErr.Category)
			assert.Equal(t, tt.message, appErr.Msg)
		})
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	fetcher := &fakeFetcher{
		repo:         &github.Repo{StargazersCount: 1200, ForksCount: 80},
		readme:       fullReadme(),
		contributors: contributors(12),
		commits:      commits(40),
		prsByState: map[string][]github.PullRequest{
			"all":  pullRequests(25),
			"open": pullRequests(5),
		},
		issues: openIssues(18),
	}
	runner := NewRunner(fetcher)

	first, err := runner.Analyze(context.Background(), "https://github.com/octocat/hello-world")
	require.NoError(t, err)
	second, err := runner.Analyze(context.Background(), "https://github.com/octocat/hello-world")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHealthTermCaps(t *testing.T) {
	tests := []struct {
		name         string
		repo         *github.Repo
		contributors []github.Contributor
		want         float64
	}{
		{
			name: "runaway stars cap at their weight",
			repo: &github.Repo{StargazersCount: 10000000},
			want: 0.35,
		},
		{
			name: "runaway forks cap at their weight",
			repo: &github.Repo{ForksCount: 999999},
			want: 0.20,
		},
		{
			name:         "contributors cap at fifty",
			repo:         &github.Repo{},
			contributors: contributors(500),
			want:         0.25,
		},
		{
			name:         "half the contributor cap",
			repo:         &github.Repo{},
			contributors: contributors(25),
			want:         0.125,
		},
		{
			name: "pages alone counts as a ci signal",
			repo: &github.Repo{HasPages: true},
			want: 0.20,
		},
		{
			name: "ci topic matches case-insensitively",
			repo: &github.Repo{Topics: []string{"CI"}},
			want: 0.20,
		},
		{
			name: "all terms saturated stay clamped",
			repo: &github.Repo{
				StargazersCount: 999999,
				ForksCount:      999999,
				HasPages:        true,
			},
			contributors: contributors(999),
			want:         1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(&fakeFetcher{repo: tt.repo, contributors: tt.contributors})
			ac := &Context{Owner: "octocat", Repo: "hello-world"}
			require.NoError(t, runner.assessHealth(context.Background(), ac))
			assert.InDelta(t, tt.want, ac.HealthScore, 1e-9)
		})
	}
}

func TestHealthDegradesToZeroWithoutMetadata(t *testing.T) {
	runner := NewRunner(&fakeFetcher{
		repoErr:    errors.New("unreachable"),
		contribErr: errors.New("unreachable"),
	})
	ac := &Context{Owner: "octocat", Repo: "hello-world"}

	require.NoError(t, runner.assessHealth(context.Background(), ac))

	assert.Zero(t, ac.Stars)
	assert.Zero(t, ac.Forks)
	assert.Zero(t, ac.Contributors)
	assert.Zero(t, ac.HealthScore)
}

func TestActivityBlendsCommitAndPRVolume(t *testing.T) {
	tests := []struct {
		name    string
		commits int
		prs     int
		want    float64
	}{
		{name: "no activity", commits: 0, prs: 0, want: 0},
		{name: "commits only", commits: 50, prs: 0, want: 0.3},
		{name: "mixed", commits: 30, prs: 80, want: 0.5},
		{name: "saturated", commits: 200, prs: 300, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(&fakeFetcher{
				commits:    commits(tt.commits),
				prsByState: map[string][]github.PullRequest{"all": pullRequests(tt.prs)},
			})
			ac := &Context{Owner: "octocat", Repo: "hello-world"}
			require.NoError(t, runner.scoreActivity(context.Background(), ac))

			assert.InDelta(t, tt.want, ac.ActivityScore, 1e-9)
			assert.Equal(t, tt.commits, ac.CommitsSample)
			assert.Equal(t, tt.prs, ac.PRsSample)
		})
	}
}

func TestEngagementIgnoresPullRequestsInIssueListing(t *testing.T) {
	marker := json.RawMessage(`{"url":"https://api.github.com/repos/octocat/hello-world/pulls/7"}`)
	runner := NewRunner(&fakeFetcher{
		issues: []github.Issue{
			{Number: 1},
			{Number: 7, PullRequest: &marker},
			{Number: 9},
		},
		prsByState: map[string][]github.PullRequest{"open": pullRequests(1)},
	})
	ac := &Context{Owner: "octocat", Repo: "hello-world"}

	require.NoError(t, runner.scoreEngagement(context.Background(), ac))

	assert.Equal(t, 2, ac.RecentIssues)
	assert.Equal(t, 1, ac.OpenPRs)
	assert.InDelta(t, 0.015, ac.EngagementScore, 1e-9)
}

func TestReadmeScoring(t *testing.T) {
	tests := []struct {
		name   string
		readme string
		want   float64
	}{
		{name: "empty", readme: "", want: 0},
		{name: "all checks pass", readme: fullReadme(), want: 1.0},
		{
			name:   "heading and length only",
			readme: "# Title\n" + strings.Repeat("a", 500),
			want:   0.4,
		},
		{
			name:   "lowercase sections do not count",
			readme: "# Title\ninstallation\nlicense\ncontributing",
			want:   0.2,
		},
		{
			name:   "getting started substitutes installation",
			readme: "Getting Started",
			want:   0.2,
		},
		{
			name:   "length measured in runes",
			readme: strings.Repeat("界", 401),
			want:   0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreReadme(tt.readme), 1e-9)
		})
	}
}

func TestClassifyCompositeBoundaries(t *testing.T) {
	tests := []struct {
		composite float64
		want      Level
	}{
		{composite: 0.0, want: LevelBeginner},
		{composite: 0.329, want: LevelBeginner},
		{composite: 0.33, want: LevelIntermediate},
		{composite: 0.659, want: LevelIntermediate},
		{composite: 0.66, want: LevelAdvanced},
		{composite: 1.0, want: LevelAdvanced},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyComposite(tt.composite), "composite %v", tt.composite)
	}
}

func TestRecommendationsForReturnsACopy(t *testing.T) {
	recs := recommendationsFor(LevelBeginner)
	require.NotEmpty(t, recs)
	recs[0] = "mutated"

	again := recommendationsFor(LevelBeginner)
	assert.Equal(t, "Start with README and Installation steps", again[0])
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0.0"},
		{in: 1, want: "1.0"},
		{in: 0.5, want: "0.5"},
		{in: 0.35, want: "0.35"},
		{in: 0.329, want: "0.329"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatScore(tt.in), "formatting %v", tt.in)
	}
}

func TestLevelValid(t *testing.T) {
	assert.True(t, LevelBeginner.Valid())
	assert.True(t, LevelIntermediate.Valid())
	assert.True(t, LevelAdvanced.Valid())
	assert.False(t, LevelUnknown.Valid())
	assert.False(t, Level("Expert").Valid())
}
