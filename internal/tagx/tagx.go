// Package tagx turns the free-form tag text typed by the admin into the
// list of tag names stored for a post.
package tagx

import "strings"

// Normalize splits text on commas, trims each piece, drops empty pieces and
// removes duplicates keeping the first occurrence. Names are case-sensitive.
//
//	Normalize("a, a, b , ") // []string{"a", "b"}
func Normalize(text string) []string {
	parts := strings.Split(text, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	return out
}

// Join renders names back into the comma separated form Normalize accepts.
func Join(names []string) string {
	return strings.Join(names, ", ")
}
