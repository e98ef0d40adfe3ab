// Package docs ships the studio's user guides and renders them for the
// terminal.
//
// Guides are markdown files embedded at build time. [Topics] lists them in
// reading order and [Render] formats one for a terminal of a given width.
package docs

import (
	"embed"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"soundsmith/internal/shared"
)

//go:embed guides/*.md
var guides embed.FS

// order fixes the listing sequence; new guides are appended here.
var order = []string{"prompting", "references", "presets", "models", "api"}

// Topic is one guide: its lookup name and the title from its first heading.
type Topic struct {
	Name  string
	Title string
}

// Topics lists the available guides in reading order.
func Topics() []Topic {
	topics := make([]Topic, 0, len(order))
	for _, name := range order {
		raw, err := guides.ReadFile("guides/" + name + ".md")
		if err != nil {
			// A name in order without a file is a packaging mistake.
			panic(fmt.Sprintf("docs: missing embedded guide %q", name))
		}
		topics = append(topics, Topic{Name: name, Title: title(raw)})
	}
	return topics
}

// Names lists guide names in reading order.
func Names() []string {
	return append([]string(nil), order...)
}

// Render formats the named guide for a terminal width columns wide. A width
// of zero or less falls back to 80.
func Render(name string, width int) (string, error) {
	raw, err := guides.ReadFile("guides/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("%w: unknown guide %q (have: %s)",
			shared.ErrInvalidArgument, name, strings.Join(Names(), ", "))
	}

	if width <= 0 {
		width = 80
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to build renderer: %w", err)
	}

	out, err := renderer.Render(string(raw))
	if err != nil {
		return "", fmt.Errorf("failed to render guide %s: %w", name, err)
	}
	return out, nil
}

// title pulls the first heading out of a guide, falling back to its first
// non-empty line.
func title(raw []byte) string {
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.TrimSpace(strings.TrimLeft(line, "# "))
	}
	return ""
}
