package core

import "regexp"

// ticketKeyPattern matches the well-known ticket-identifier shape:
// an uppercase project key followed by a dash and a number.
var ticketKeyPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]+-[0-9]+\b`)

// ExtractTicketKey returns the first ticket identifier found in text,
// or "" when the text contains none.
func ExtractTicketKey(text string) string {
	return ticketKeyPattern.FindString(text)
}

// IsTicketKey reports whether s is exactly a ticket identifier.
func IsTicketKey(s string) bool {
	loc := ticketKeyPattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}
