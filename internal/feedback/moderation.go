package feedback

import "github.com/microcosm-cc/bluemonday"

// AllowAll is the default moderation predicate; it accepts everything.
func AllowAll(string) bool { return true }

// RejectMarkup returns a predicate that rejects comments containing HTML
// markup, using bluemonday's strict policy. Content that survives
// sanitization unchanged is accepted.
func RejectMarkup() ModerationFunc {
	policy := bluemonday.StrictPolicy()
	return func(content string) bool {
		return policy.Sanitize(content) == content
	}
}
