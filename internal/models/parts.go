package models

import "strings"

// PartsToText renders parts as text: lines joined by newlines, parts separated by one blank line.
func PartsToText(parts [][]string) string {
	blocks := make([]string, 0, len(parts))
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		blocks = append(blocks, strings.Join(part, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// TextToParts splits text into parts on blank lines. Lines are trimmed and empty parts dropped.
func TextToParts(text string) [][]string {
	parts := [][]string{}
	current := []string{}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				parts = append(parts, current)
				current = []string{}
			}
			continue
		}
		current = append(current, line)
	}

	if len(current) > 0 {
		parts = append(parts, current)
	}

	return parts
}
