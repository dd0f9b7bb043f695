package templates

import "embed"

// EmailFS contains the HTML bodies of outgoing mail.
//
//go:embed email/*.html
var EmailFS embed.FS
