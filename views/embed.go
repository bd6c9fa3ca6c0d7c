// Package views embeds the HTML templates rendered outside the JSON API.
package views

import "embed"

// FS holds the templates for the fiber html engine.
//
//go:embed *.html
var FS embed.FS
