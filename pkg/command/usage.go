package command

import (
	"fmt"
	"sort"
	"strings"
)

// FormatUsage renders a command's usage guide the way the help output shows
// it: one line per guide entry, prefixed with the command invocation.
func FormatUsage(m Meta, prefix string) string {
	if len(m.Guide) == 0 {
		return fmt.Sprintf("Usage: %s%s", prefix, strings.ToLower(m.Name))
	}
	var b strings.Builder
	b.WriteString("Usage:\n")
	for _, line := range m.Guide {
		b.WriteString(fmt.Sprintf("%s%s %s\n", prefix, strings.ToLower(m.Name), line))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHelp renders the full command list grouped by category.
func FormatHelp(cmds []Command, prefix string) string {
	byCategory := make(map[string][]Meta)
	for _, cmd := range cmds {
		m := cmd.Meta()
		cat := m.Category
		if cat == "" {
			cat = "misc"
		}
		byCategory[cat] = append(byCategory[cat], m)
	}

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, cat := range categories {
		b.WriteString("\n" + strings.ToUpper(cat) + "\n")
		metas := byCategory[cat]
		sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
		for _, m := range metas {
			line := fmt.Sprintf("%s%s", prefix, strings.ToLower(m.Name))
			if m.Description != "" {
				line += " - " + m.Description
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
