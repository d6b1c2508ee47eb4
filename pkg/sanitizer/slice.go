package sanitizer

// SanitizeSlice applies normalizer to every item and drops empty results and
// duplicates, keeping first-seen order.
func SanitizeSlice(items []string, normalizer func(string) string) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, item := range items {
		s := normalizer(item)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}
