package catalog

import "strings"

// SplitTags turns the upload form's comma-separated tag string into a list:
// entries are trimmed and empties dropped, order and case kept for display.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return CleanTags(strings.Split(raw, ","))
}

// CleanTags trims each tag and drops empty entries without reordering.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}
