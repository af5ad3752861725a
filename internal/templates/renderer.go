// Package templates binds entity data to message variables and renders
// template bodies by literal placeholder substitution.
package templates

import (
	"regexp"
	"sort"
)

// Vars maps placeholder names to their values.
type Vars map[string]string

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// Merge layers vars left to right; later layers win on the same key.
func Merge(layers ...Vars) Vars {
	out := Vars{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// Render substitutes {{name}} placeholders in body. Placeholders without a
// binding are left exactly as written.
func Render(body string, layers ...Vars) string {
	vars := Merge(layers...)
	return placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

// Placeholders lists the distinct placeholder names used in body, sorted.
func Placeholders(body string) []string {
	seen := map[string]struct{}{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(body, -1) {
		seen[m[1]] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
