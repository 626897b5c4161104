// Package assets holds files embedded into the binaries.
package assets

import "embed"

//go:embed all:templates
var FS embed.FS
