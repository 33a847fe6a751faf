// Package ui embeds the web interface: the gohtml templates and the static assets.
package ui

import "embed"

//go:embed templates static
var Files embed.FS
