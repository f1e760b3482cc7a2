package crawler

import "testing"

// TestScopeContains tests the prefix-based same-origin predicate.
func TestScopeContains(t *testing.T) {
	t.Parallel()

	scope := NewScope("https://deepwiki.com/owner/repo/")

	testCases := []struct {
		name      string
		candidate string
		expected  bool
	}{
		{"seed itself", "https://deepwiki.com/owner/repo/", true},
		{"child page", "https://deepwiki.com/owner/repo/1-overview", true},
		{"nested page", "https://deepwiki.com/owner/repo/2-api/2.1-client", true},
		{"sibling repository", "https://deepwiki.com/owner/other/", false},
		{"repository name prefix", "https://deepwiki.com/owner/repository/", false},
		{"parent", "https://deepwiki.com/owner/", false},
		{"other host", "https://example.com/owner/repo/", false},
		{"scheme differs", "http://deepwiki.com/owner/repo/", false},
		{"host case differs", "https://DeepWiki.com/owner/repo/", false},
		{"empty", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := scope.Contains(tc.candidate); got != tc.expected {
				t.Errorf("Contains(%q) = %v, expected %v", tc.candidate, got, tc.expected)
			}
		})
	}

	t.Run("empty base contains nothing", func(t *testing.T) {
		t.Parallel()
		if NewScope("").Contains("https://deepwiki.com/") {
			t.Error("empty scope should not contain any URL")
		}
	})
}
