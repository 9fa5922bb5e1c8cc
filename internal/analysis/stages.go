package analysis

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	apperrors "github.com/abhigyan2003/github-repo-ai-agent/internal/errors"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/github"
)

const (
	healthStarsCap        = 5000.0
	healthForksCap        = 1000.0
	healthContributorsCap = 50.0

	healthWeightStars        = 0.35
	healthWeightForks        = 0.20
	healthWeightContributors = 0.25
	healthWeightCI           = 0.20

	activitySampleCap    = 100.0
	activityWeightCommit = 0.6
	activityWeightPR     = 0.4

	engagementVolumeCap = 200.0

	readmeMinRuneLength = 400
)

// ciTopics are repository topics treated as evidence of a CI setup.
var ciTopics = map[string]struct{}{
	"ci":             {},
	"github-actions": {},
	"tests":          {},
}

// resolveInput parses the raw URL into owner and repository name. This
// is the only stage that can abort a run.
func (r *Runner) resolveInput(_ context.Context, ac *Context) error {
	raw := strings.TrimSpace(ac.RawURL)
	if raw == "" {
		return apperrors.NewMissingInputError()
	}

	ref, err := github.ParseRepoURL(raw)
	if err != nil {
		return err
	}

	ac.Owner = ref.Owner
	ac.Repo = ref.Name
	return nil
}

// verifyDocumentation fetches the README and scores it against five
// fixed quality checks. A missing or unfetchable README scores zero.
func (r *Runner) verifyDocumentation(ctx context.Context, ac *Context) error {
	readme, ok := r.fetchReadme(ctx, ac.Owner, ac.Repo)
	if !ok {
		ac.Readme = ""
		ac.ReadmeQuality = 0
		return nil
	}

	ac.Readme = readme
	ac.ReadmeQuality = scoreReadme(readme)
	return nil
}

// assessHealth combines stars, forks, contributor count, and a CI
// signal into the health score. Each term is capped before weighting so
// a single runaway signal cannot dominate.
func (r *Runner) assessHealth(ctx context.Context, ac *Context) error {
	repo, ok := r.fetchRepo(ctx, ac.Owner, ac.Repo)
	if ok {
		ac.Stars = repo.StargazersCount
		ac.Forks = repo.ForksCount
		ac.OpenIssues = repo.OpenIssuesCount
		ac.Topics = repo.Topics
		ac.HasPages = repo.HasPages
	}

	ac.Contributors = len(r.fetchContributors(ctx, ac.Owner, ac.Repo))

	score := math.Min(float64(ac.Stars)/healthStarsCap, 1)*healthWeightStars +
		math.Min(float64(ac.Forks)/healthForksCap, 1)*healthWeightForks +
		math.Min(float64(ac.Contributors), healthContributorsCap)/healthContributorsCap*healthWeightContributors
	if hasCISignal(ac.Topics, ac.HasPages) {
		score += healthWeightCI
	}

	ac.HealthScore = round3(math.Min(score, 1))
	return nil
}

// scoreActivity samples recent commits and pull requests concurrently
// and blends the two volumes.
func (r *Runner) scoreActivity(ctx context.Context, ac *Context) error {
	var (
		wg      sync.WaitGroup
		commits []github.Commit
		prs     []github.PullRequest
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		commits = r.fetchCommits(ctx, ac.Owner, ac.Repo)
	}()
	go func() {
		defer wg.Done()
		prs = r.fetchPullRequests(ctx, ac.Owner, ac.Repo, "all")
	}()
	wg.Wait()

	ac.CommitsSample = len(commits)
	ac.PRsSample = len(prs)

	score := math.Min(float64(ac.CommitsSample)/activitySampleCap, 1)*activityWeightCommit +
		math.Min(float64(ac.PRsSample)/activitySampleCap, 1)*activityWeightPR
	ac.ActivityScore = round3(score)
	return nil
}

// scoreEngagement counts genuinely open issues (the issues listing also
// carries pull requests, which are filtered out) alongside open pull
// requests and maps the combined volume onto [0, 1].
func (r *Runner) scoreEngagement(ctx context.Context, ac *Context) error {
	var (
		wg     sync.WaitGroup
		issues []github.Issue
		prs    []github.PullRequest
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		issues = r.fetchIssues(ctx, ac.Owner, ac.Repo, "open")
	}()
	go func() {
		defer wg.Done()
		prs = r.fetchPullRequests(ctx, ac.Owner, ac.Repo, "open")
	}()
	wg.Wait()

	recent := 0
	for _, issue := range issues {
		if !issue.IsPullRequest() {
			recent++
		}
	}

	ac.RecentIssues = recent
	ac.OpenPRs = len(prs)
	ac.EngagementScore = round3(math.Min(float64(recent+ac.OpenPRs)/engagementVolumeCap, 1))
	return nil
}

// classifyLevel folds the four sub-scores into the composite and maps
// it onto a contributor tier.
func (r *Runner) classifyLevel(_ context.Context, ac *Context) error {
	composite := ac.ReadmeQuality*tierWeightReadme +
		ac.HealthScore*tierWeightHealth +
		ac.ActivityScore*tierWeightActivity +
		ac.EngagementScore*tierWeightEngagement

	ac.Level = classifyComposite(composite)
	ac.Recommendations = recommendationsFor(ac.Level)
	return nil
}

// fetchRepo returns the repository metadata, or ok=false when the fetch
// fails and the health stage should fall back to zero-valued signals.
func (r *Runner) fetchRepo(ctx context.Context, owner, repo string) (*github.Repo, bool) {
	meta, err := r.fetcher.Repo(ctx, owner, repo)
	if err != nil {
		slog.Warn("analysis: repository metadata unavailable",
			"repo", owner+"/"+repo,
			"err", err,
		)
		return nil, false
	}
	return meta, true
}

func (r *Runner) fetchReadme(ctx context.Context, owner, repo string) (string, bool) {
	readme, err := r.fetcher.Readme(ctx, owner, repo)
	if err != nil {
		slog.Debug("analysis: readme unavailable",
			"repo", owner+"/"+repo,
			"err", err,
		)
		return "", false
	}
	return readme, true
}

func (r *Runner) fetchContributors(ctx context.Context, owner, repo string) []github.Contributor {
	contributors, err := r.fetcher.Contributors(ctx, owner, repo)
	if err != nil {
		slog.Debug("analysis: contributors unavailable",
			"repo", owner+"/"+repo,
			"err", err,
		)
		return nil
	}
	return contributors
}

func (r *Runner) fetchCommits(ctx context.Context, owner, repo string) []github.Commit {
	commits, err := r.fetcher.Commits(ctx, owner, repo)
	if err != nil {
		slog.Debug("analysis: commits unavailable",
			"repo", owner+"/"+repo,
			"err", err,
		)
		return nil
	}
	return commits
}

func (r *Runner) fetchPullRequests(ctx context.Context, owner, repo, state string) []github.PullRequest {
	prs, err := r.fetcher.PullRequests(ctx, owner, repo, state)
	if err != nil {
		slog.Debug("analysis: pull requests unavailable",
			"repo", owner+"/"+repo,
			"state", state,
			"err", err,
		)
		return nil
	}
	return prs
}

func (r *Runner) fetchIssues(ctx context.Context, owner, repo, state string) []github.Issue {
	issues, err := r.fetcher.Issues(ctx, owner, repo, state)
	if err != nil {
		slog.Debug("analysis: issues unavailable",
			"repo", owner+"/"+repo,
			"state", state,
			"err", err,
		)
		return nil
	}
	return issues
}

// scoreReadme runs the five documentation checks and returns the passed
// fraction. Checks are case-sensitive substring matches.
func scoreReadme(readme string) float64 {
	checks := []bool{
		strings.Contains(readme, "# "),
		utf8.RuneCountInString(readme) > readmeMinRuneLength,
		strings.Contains(readme, "Installation") || strings.Contains(readme, "Getting Started"),
		strings.Contains(readme, "License") || strings.Contains(readme, "MIT"),
		strings.Contains(readme, "Contributing") || strings.Contains(readme, "Contribution"),
	}

	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return round3(float64(passed) / float64(len(checks)))
}

// hasCISignal reports whether the repository advertises a CI setup via
// its topics or published pages.
func hasCISignal(topics []string, hasPages bool) bool {
	if hasPages {
		return true
	}
	for _, topic := range topics {
		if _, ok := ciTopics[strings.ToLower(topic)]; ok {
			return true
		}
	}
	return false
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
