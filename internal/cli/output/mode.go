// Package output renders command results for terminals, pipes and machines.
//
// Output adapts to the environment:
//   - Terminal: styled text with colors and box tables
//   - Piped/Scripted: markdown
//   - JSON: machine-readable documents
package output

import (
	"fmt"
	"strings"
)

// Mode selects how a Renderer formats output.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Modes lists the accepted mode names.
var Modes = []Mode{ModeAuto, ModeText, ModeMarkdown, ModeJSON}

// ParseMode parses a mode name. Empty means auto; "md" is accepted for markdown.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeAuto):
		return ModeAuto, nil
	case string(ModeText):
		return ModeText, nil
	case string(ModeMarkdown), "md":
		return ModeMarkdown, nil
	case string(ModeJSON):
		return ModeJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", s)
	}
}
