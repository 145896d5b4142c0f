package webinfo

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as a text block for a system prompt.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return "Результаты поиска не найдены."
	}
	var b strings.Builder
	b.WriteString("РЕЗУЛЬТАТЫ ПОИСКА В ИНТЕРНЕТЕ:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, r.Title)
		fmt.Fprintf(&b, "   URL: %s\n", r.URL)
		if r.Description != "" {
			fmt.Fprintf(&b, "   Описание: %s\n", r.Description)
		}
		if r.Content != "" {
			content := r.Content
			if runes := []rune(content); len(runes) > 500 {
				content = string(runes[:500]) + "..."
			}
			fmt.Fprintf(&b, "   Содержимое: %s\n", content)
		}
		b.WriteString("\n")
	}
	return b.String()
}
