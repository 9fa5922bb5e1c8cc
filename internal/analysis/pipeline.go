// Package analysis implements the repository analysis pipeline: an
// ordered sequence of stages that fetch public GitHub signals into a
// shared context and reduce them to sub-scores, a contributor tier, and
// recommendations. Only the first stage (input resolution) can fail a
// run; every fetching stage degrades unavailable upstream data to
// zero-valued defaults so the pipeline always produces a complete
// result.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/abhigyan2003/github-repo-ai-agent/internal/github"
)

// Fetcher is the slice of the GitHub client the pipeline consumes.
type Fetcher interface {
	Repo(ctx context.Context, owner, name string) (*github.Repo, error)
	Readme(ctx context.Context, owner, name string) (string, error)
	Contributors(ctx context.Context, owner, name string) ([]github.Contributor, error)
	Commits(ctx context.Context, owner, name string) ([]github.Commit, error)
	PullRequests(ctx context.Context, owner, name, state string) ([]github.PullRequest, error)
	Issues(ctx context.Context, owner, name, state string) ([]github.Issue, error)
}

// Stage is one named step of the pipeline.
type Stage struct {
	Name string
	Run  func(ctx context.Context, ac *Context) error
}

// Runner executes the analysis pipeline. It is safe for concurrent use;
// each Analyze call works on its own Context.
type Runner struct {
	fetcher Fetcher
	stages  []Stage
}

// NewRunner builds a pipeline runner over the given fetcher. The stage
// order is fixed: later stages read context fields earlier ones write.
func NewRunner(fetcher Fetcher) *Runner {
	r := &Runner{fetcher: fetcher}
	r.stages = []Stage{
		{Name: "input_resolution", Run: r.resolveInput},
		{Name: "documentation_verification", Run: r.verifyDocumentation},
		{Name: "repository_health", Run: r.assessHealth},
		{Name: "activity_scoring", Run: r.scoreActivity},
		{Name: "engagement_scoring", Run: r.scoreEngagement},
		{Name: "level_classification", Run: r.classifyLevel},
	}
	return r
}

// Analyze runs every stage in order against one shared context and
// finalizes the result. rawURL is the caller-normalized repository URL;
// adapters are responsible for reducing their input shapes to it.
func (r *Runner) Analyze(ctx context.Context, rawURL string) (*Result, error) {
	started := time.Now()
	ac := &Context{RawURL: rawURL}

	for _, stage := range r.stages {
		stageStart := time.Now()
		if err := stage.Run(ctx, ac); err != nil {
			slog.Warn("analysis: stage failed",
				"stage", stage.Name,
				"err", err,
			)
			return nil, err
		}
		slog.Debug("analysis: stage complete",
			"stage", stage.Name,
			"duration_ms", time.Since(stageStart).Milliseconds(),
		)
	}

	result, err := finalize(ac)
	if err != nil {
		return nil, err
	}

	slog.Info("analysis: run complete",
		"repo", result.Owner+"/"+result.Repo,
		"level", result.Level,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return result, nil
}
