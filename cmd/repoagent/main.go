package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	root := &cobra.Command{
		Use:   "repoagent",
		Short: "Analyze public GitHub repositories for onboarding difficulty",
		Long: `repoagent scores a public GitHub repository on README quality, project
health, recent activity and community engagement, classifies how hard it
is to start contributing, and suggests concrete next steps.

Set GITHUB_TOKEN to raise the API rate limit for repeated runs.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newAnalyzeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}
