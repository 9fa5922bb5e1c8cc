package analysis

// Context accumulates everything one analysis run learns about a
// repository. The orchestrator owns it for the duration of the run and
// passes it by pointer through the stages in order; each stage writes
// only the fields listed in its contract and reads only fields written
// by earlier stages.
type Context struct {
	// Set by the caller before the run starts.
	RawURL string

	// Written by the input resolution stage.
	Owner string
	Repo  string

	// Written by the documentation verification stage.
	Readme        string
	ReadmeQuality float64

	// Written by the repository health stage.
	Stars        int
	Forks        int
	OpenIssues   int
	Topics       []string
	HasPages     bool
	Contributors int
	HealthScore  float64

	// Written by the activity scoring stage.
	CommitsSample int
	PRsSample     int
	ActivityScore float64

	// Written by the engagement scoring stage.
	RecentIssues    int
	OpenPRs         int
	EngagementScore float64

	// Written by the level classification stage.
	Level           Level
	Recommendations []string
}
