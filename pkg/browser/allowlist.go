package browser

import (
	"fmt"

	"github.com/gobwas/glob"
)

// URLMatcher decides which URLs the driver may navigate to.
type URLMatcher struct {
	patterns []glob.Glob
}

// NewURLMatcher compiles glob patterns such as "https://*.example.com/*".
// No patterns means every URL is allowed.
func NewURLMatcher(patterns []string) (*URLMatcher, error) {
	m := &URLMatcher{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid url pattern '%s': %w", pattern, err)
		}
		m.patterns = append(m.patterns, g)
	}
	return m, nil
}

// Allowed reports whether rawURL matches one of the patterns.
func (m *URLMatcher) Allowed(rawURL string) bool {
	if m == nil || len(m.patterns) == 0 {
		return true
	}
	for _, g := range m.patterns {
		if g.Match(rawURL) {
			return true
		}
	}
	return false
}
