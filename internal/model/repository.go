package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Repository identifier errors.
var (
	// ErrEmptyRepository is returned when the identifier is empty or blank.
	ErrEmptyRepository = errors.New("repository identifier cannot be empty")
	// ErrInvalidRepository is returned when the identifier is neither
	// "owner/repo" nor a github.com repository URL.
	ErrInvalidRepository = errors.New("invalid repository identifier: expected owner/repo or https://github.com/owner/repo")
)

const (
	// DefaultWikiBaseURL is the DeepWiki site that hosts generated documentation.
	DefaultWikiBaseURL = "https://deepwiki.com"

	// gitSuffix is stripped from repository names copied from clone URLs.
	gitSuffix = ".git"
)

// githubHosts lists the hosts accepted in a repository URL.
var githubHosts = map[string]bool{
	"github.com":     true,
	"www.github.com": true,
}

// Repository is an immutable value object identifying a GitHub repository.
type Repository struct {
	owner string
	name  string
}

// ParseRepository parses a user supplied identifier. Two forms are accepted:
//
//	owner/repo
//	https://github.com/owner/repo[/anything][?query][#fragment]
//
// The returned error wraps ErrEmptyRepository or ErrInvalidRepository.
func ParseRepository(input string) (Repository, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Repository{}, ErrEmptyRepository
	}

	if strings.Contains(trimmed, "://") {
		return parseRepositoryURL(trimmed)
	}
	return parseShorthand(trimmed)
}

// MustParseRepository parses the identifier or panics.
// Use only for known-valid identifiers in tests or initialization.
func MustParseRepository(input string) Repository {
	repo, err := ParseRepository(input)
	if err != nil {
		panic(err)
	}
	return repo
}

func parseShorthand(input string) (Repository, error) {
	parts := strings.Split(input, "/")
	if len(parts) != 2 {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, input)
	}
	return newRepository(input, parts[0], parts[1])
}

func parseRepositoryURL(input string) (Repository, error) {
	u, err := url.Parse(input)
	if err != nil {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, input)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "https" && scheme != "http" {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, input)
	}
	if !githubHosts[strings.ToLower(u.Hostname())] {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, input)
	}

	segments := make([]string, 0, 2)
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, input)
	}

	return newRepository(input, segments[0], strings.TrimSuffix(segments[1], gitSuffix))
}

func newRepository(input, owner, name string) (Repository, error) {
	if !isValidSegment(owner) || !isValidSegment(name) {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, input)
	}
	return Repository{owner: owner, name: name}, nil
}

// isValidSegment reports whether s is usable as a GitHub owner or repository
// name: ASCII letters, digits, '-', '_' and '.', and not a dot path.
func isValidSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for _, c := range s {
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !isDigit && c != '-' && c != '_' && c != '.' {
			return false
		}
	}
	return true
}

// Owner returns the repository owner (user or organization).
func (r Repository) Owner() string {
	return r.owner
}

// Name returns the repository name.
func (r Repository) Name() string {
	return r.name
}

// String returns the "owner/repo" form.
func (r Repository) String() string {
	if r.IsZero() {
		return ""
	}
	return r.owner + "/" + r.name
}

// IsZero returns true if this is a zero value Repository.
func (r Repository) IsZero() bool {
	return r.owner == "" && r.name == ""
}

// SeedURL returns the first page of the repository's wiki on the given site,
// for example "https://deepwiki.com/owner/repo/". An empty base selects
// DefaultWikiBaseURL. The seed URL doubles as the crawl scope prefix.
func (r Repository) SeedURL(base string) string {
	if base == "" {
		base = DefaultWikiBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + r.owner + "/" + r.name + "/"
}

// GitHubURL returns the canonical GitHub URL of the repository.
func (r Repository) GitHubURL() string {
	return "https://github.com/" + r.String()
}
