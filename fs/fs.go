// Package appfs embeds files needed at runtime regardless of the working dir.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
