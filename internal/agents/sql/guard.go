package sql

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNotReadOnly is returned for statements other than SELECT or WITH.
var ErrNotReadOnly = errors.New("only read-only SELECT queries are allowed")

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// CleanSQL strips Markdown code fences and surrounding whitespace from model output.
func CleanSQL(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return strings.TrimSpace(s)
}

var writeKeywords = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|TRUNCATE|CREATE|GRANT|REVOKE|MERGE|COPY)\b`)

// IsReadOnly accepts a single SELECT or WITH statement without write keywords.
func IsReadOnly(query string) bool {
	q := strings.TrimSuffix(strings.TrimSpace(query), ";")
	upper := strings.ToUpper(q)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return false
	}
	if strings.Contains(q, ";") {
		return false
	}
	return !writeKeywords.MatchString(q)
}

// Guard returns ErrNotReadOnly unless IsReadOnly accepts query.
func Guard(query string) error {
	if !IsReadOnly(query) {
		return ErrNotReadOnly
	}
	return nil
}
