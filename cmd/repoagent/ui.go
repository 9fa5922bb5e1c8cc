package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abhigyan2003/github-repo-ai-agent/internal/analysis"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/scoring"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSection = lipgloss.NewStyle().Bold(true)
	styleLabel   = lipgloss.NewStyle().Foreground(colorGray)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)

	levelStyles = map[analysis.Level]lipgloss.Style{
		analysis.LevelBeginner:     lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
		analysis.LevelIntermediate: lipgloss.NewStyle().Bold(true).Foreground(colorYellow),
		analysis.LevelAdvanced:     lipgloss.NewStyle().Bold(true).Foreground(colorRed),
	}
)

const barWidth = 10

// renderReport prints the formatted analysis report.
func renderReport(w io.Writer, result *analysis.Result) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  %s\n",
		styleTitle.Render(result.Owner+"/"+result.Repo),
		renderLevel(result.Level),
	)
	fmt.Fprintln(w)

	scores := []struct {
		label string
		value float64
	}{
		{"README quality", result.ReadmeQuality},
		{"Health", result.HealthScore},
		{"Activity", result.ActivityScore},
		{"Engagement", result.EngagementScore},
	}
	for _, s := range scores {
		fmt.Fprintf(w, "  %s %s\n", styleLabel.Render(fmt.Sprintf("%-15s", s.label)), scoreBar(s.value))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s\n", styleSection.Render("Signals"))
	details := []struct {
		label string
		value string
	}{
		{"README present", yesNo(result.Details.ReadmePresent)},
		{"contributors", fmt.Sprintf("%d", result.Details.ContributorsCount)},
		{"recent commits", fmt.Sprintf("%d", result.Details.CommitsSample)},
		{"pull requests", fmt.Sprintf("%d", result.Details.PRsSample)},
		{"recent issues", fmt.Sprintf("%d", result.Details.RecentIssuesCount)},
		{"open PRs", fmt.Sprintf("%d", result.Details.OpenPRsCount)},
	}
	for _, d := range details {
		fmt.Fprintf(w, "    %s %s\n", styleDim.Render(fmt.Sprintf("%-15s", d.label)), d.value)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s\n", styleSection.Render("Next steps"))
	for _, rec := range result.Recommendations {
		fmt.Fprintf(w, "    %s %s\n", styleDim.Render("→"), rec)
	}
	fmt.Fprintln(w)
}

// renderLevel styles the difficulty level with its tier color.
func renderLevel(level analysis.Level) string {
	if style, ok := levelStyles[level]; ok {
		return style.Render(string(level))
	}
	return string(level)
}

// scoreBar renders a sub-score as a ten-segment bar with its 0-10 value.
func scoreBar(v float64) string {
	ten := scoring.NormalizeToTen(v)
	filled := int(math.Round(ten))
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("%s %4.1f/10", bar, ten)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// renderError styles a fatal CLI error.
func renderError(err error) string {
	return styleError.Render("✗") + " " + err.Error()
}
