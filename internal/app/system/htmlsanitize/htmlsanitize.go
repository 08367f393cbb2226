// Package htmlsanitize strips markup from user-entered free text such as
// todo, project and event descriptions. The API stores plain text, and the
// client renders it escaped, so no tags are kept.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// policy is the shared bluemonday policy that removes every element.
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, creating it on first use.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text removes all HTML from s and trims surrounding whitespace. Entities
// that bluemonday escapes on output are decoded again, so "Tom & Jerry"
// round-trips unchanged. Script and style bodies are dropped along with
// their tags.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(getPolicy().Sanitize(s)))
}

// TextPtr applies Text to an optional field, keeping nil as nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	return &out
}

// IsPlainText reports whether s contains no markup. Text(s) == s for
// trimmed plain text.
func IsPlainText(s string) bool {
	if s == "" {
		return true
	}
	// Valid HTML tags require both characters, so if either is missing, treat as plain text
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}
