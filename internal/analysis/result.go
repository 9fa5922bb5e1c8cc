package analysis

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/abhigyan2003/github-repo-ai-agent/internal/errors"
)

// Details carries the raw signal counts behind the sub-scores so
// callers can surface how a result was derived.
type Details struct {
	ReadmePresent     bool `json:"readme_present"`
	ContributorsCount int  `json:"contributors_count"`
	CommitsSample     int  `json:"commits_sample"`
	PRsSample         int  `json:"prs_sample"`
	RecentIssuesCount int  `json:"recent_issues_count"`
	OpenPRsCount      int  `json:"open_prs_count"`
}

// Result is the finalized output of one pipeline run.
type Result struct {
	Owner           string   `json:"owner"`
	Repo            string   `json:"repo"`
	ReadmeQuality   float64  `json:"readme_quality"`
	HealthScore     float64  `json:"health_score"`
	ActivityScore   float64  `json:"activity_score"`
	EngagementScore float64  `json:"engagement_score"`
	Level           Level    `json:"level"`
	Recommendations []string `json:"recommendations"`
	Summary         string   `json:"summary"`
	Details         Details  `json:"details"`
}

// finalize snapshots the accumulated context into an immutable result.
// It guards the pipeline contract: by this point the input stage must
// have resolved an owner and repository name.
func finalize(ac *Context) (*Result, error) {
	if ac.Owner == "" || ac.Repo == "" {
		return nil, apperrors.NewInternalError(
			"analysis finished without a resolved repository", nil)
	}

	level := ac.Level
	if !level.Valid() {
		level = LevelUnknown
	}

	result := &Result{
		Owner:           ac.Owner,
		Repo:            ac.Repo,
		ReadmeQuality:   round3(ac.ReadmeQuality),
		HealthScore:     round3(ac.HealthScore),
		ActivityScore:   round3(ac.ActivityScore),
		EngagementScore: round3(ac.EngagementScore),
		Level:           level,
		Recommendations: ac.Recommendations,
		Details: Details{
			ReadmePresent:     ac.Readme != "",
			ContributorsCount: ac.Contributors,
			CommitsSample:     ac.CommitsSample,
			PRsSample:         ac.PRsSample,
			RecentIssuesCount: ac.RecentIssues,
			OpenPRsCount:      ac.OpenPRs,
		},
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	result.Summary = buildSummary(result)
	return result, nil
}

func buildSummary(r *Result) string {
	return fmt.Sprintf(
		"Repo %s/%s\nREADME quality: %s\nHealth score: %s\nActivity score: %s\nEngagement score: %s\nLevel: %s",
		r.Owner, r.Repo,
		formatScore(r.ReadmeQuality),
		formatScore(r.HealthScore),
		formatScore(r.ActivityScore),
		formatScore(r.EngagementScore),
		r.Level,
	)
}

// formatScore renders a score with the shortest exact decimal form,
// keeping a trailing ".0" on whole values so 0 prints as "0.0" and 1 as
// "1.0".
func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
