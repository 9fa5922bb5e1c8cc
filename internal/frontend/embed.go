// Package frontend serves the embedded analyzer page.
package frontend

import "embed"

//go:embed index.html
var pageFS embed.FS
