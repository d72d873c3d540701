package sync

import (
	"fmt"
	"strings"
)

// ParseOverrides parses the category override blob, one `code => name`
// mapping per line. Malformed non-blank lines are an error rather than being
// silently skipped, so a misconfigured blob is visible immediately.
func ParseOverrides(text string) (map[string]string, error) {
	overrides := make(map[string]string)

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		code, name, found := strings.Cut(line, "=>")
		if !found {
			return nil, fmt.Errorf("override line %d: missing \"=>\" separator: %q", i+1, line)
		}

		code = strings.TrimSpace(code)
		name = strings.TrimSpace(name)
		if code == "" || name == "" {
			return nil, fmt.Errorf("override line %d: empty code or name: %q", i+1, line)
		}

		overrides[code] = name
	}

	return overrides, nil
}
