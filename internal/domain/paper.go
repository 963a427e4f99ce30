package domain

import (
	"strings"
	"unicode/utf8"
)

// Paper is a normalized arXiv paper record. It is re-fetched on every request
// that needs it and never stored.
type Paper struct {
	// ID is the last path segment of the upstream entry identifier,
	// e.g. "2301.12345v1" for "http://arxiv.org/abs/2301.12345v1".
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Abstract   string   `json:"abstract"`
	Published  string   `json:"published"`
	PDFURL     string   `json:"pdf_url"`
	Categories []string `json:"categories"`
}

// IDFromEntryID derives a paper identifier from an upstream entry identifier
// by taking everything after the last "/". Search results and id lookups both
// go through this function so the two paths yield the same identifier.
func IDFromEntryID(entryID string) string {
	entryID = strings.TrimSpace(entryID)
	if i := strings.LastIndex(entryID, "/"); i >= 0 {
		return entryID[i+1:]
	}
	return entryID
}

// AuthorList returns the author names joined with ", ".
func (p *Paper) AuthorList() string {
	return strings.Join(p.Authors, ", ")
}

// CategoryList returns the category tags joined with ", ".
func (p *Paper) CategoryList() string {
	return strings.Join(p.Categories, ", ")
}

// ShortTitle returns the title cut to at most n characters.
func (p *Paper) ShortTitle(n int) string {
	return Truncate(p.Title, n)
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
