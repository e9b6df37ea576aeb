// Package templates embeds the HTML page templates served by the web layer.
package templates

import "embed"

//go:embed base.html pages/*.html
var FS embed.FS
