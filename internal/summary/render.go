package summary

import "strings"

// Section maps a tree path to the label it is rendered under.
type Section struct {
	Label string
	Path  string
}

// DefaultSections are the parts of a summarization reply shown to operators,
// in display order.
var DefaultSections = []Section{
	{Label: "Summary", Path: "Output.Summary"},
	{Label: "Action", Path: "Output.Action"},
}

// Render formats the given sections of root as labeled paragraphs separated
// by a blank line. Missing or empty sections are omitted.
func Render(root *Node, sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		text := strings.TrimSpace(root.Find(s.Path).Text())
		if text == "" {
			continue
		}
		parts = append(parts, s.Label+":\n"+text)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// Format parses payload and renders DefaultSections.
func Format(payload string) (string, error) {
	root, err := Parse(payload)
	if err != nil {
		return "", err
	}
	return Render(root, DefaultSections), nil
}
