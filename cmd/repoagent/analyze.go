package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhigyan2003/github-repo-ai-agent/internal/analysis"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/github"
)

type analyzeFlags struct {
	jsonOut bool
	timeout time.Duration
	verbose bool
}

func newAnalyzeCmd() *cobra.Command {
	f := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze <repo-url>",
		Short: "Run the full analysis pipeline against one repository",
		Long: `Fetches repository metadata, README, contributors, commits, pull
requests and issues from the GitHub API, scores each dimension and
prints a formatted report.

Individual fetch failures degrade the affected score to zero instead
of aborting, so a report is produced whenever the URL itself is valid.

Use --json for machine-readable output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&f.jsonOut, "json", false, "Output raw JSON instead of the formatted report")
	flags.DurationVar(&f.timeout, "timeout", 60*time.Second, "Overall timeout for the analysis")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Log every pipeline stage to stderr")

	return cmd
}

func runAnalyze(cmd *cobra.Command, rawURL string, f *analyzeFlags) error {
	// Pipeline logs go to stderr so stdout stays clean for the report.
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})))

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()

	baseURL := os.Getenv("GITHUB_API_URL")
	if baseURL == "" {
		baseURL = github.DefaultBaseURL
	}
	client := github.NewClientWithBase(os.Getenv("GITHUB_TOKEN"), baseURL)
	runner := analysis.NewRunner(client)

	result, err := runner.Analyze(ctx, rawURL)
	if err != nil {
		return err
	}

	if f.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	renderReport(cmd.OutOrStdout(), result)
	return nil
}
