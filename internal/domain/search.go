package domain

import "strings"

// Search limits. The struct tags on searchInput carry the same values.
const (
	MaxQueryLength     = 200
	MinSearchLimit     = 1
	MaxSearchLimit     = 50
	DefaultSearchLimit = 10
)

// ValidateSearch checks a free-text query and result limit and returns the
// trimmed query. The length limit applies to the query as received.
func ValidateSearch(query string, limit int) (string, error) {
	if err := validateInput(searchInput{Query: query, Limit: limit}); err != nil {
		return "", err
	}
	return strings.TrimSpace(query), nil
}

// ValidatePaperID trims a paper identifier and rejects empty values.
func ValidatePaperID(id string) (string, error) {
	if err := validateInput(paperIDInput{PaperID: id}); err != nil {
		return "", err
	}
	return strings.TrimSpace(id), nil
}
