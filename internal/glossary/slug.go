package glossary

import "strings"

// Slugify derives the canonical slug for a term: lowercase, with whitespace runs
// collapsed to a single hyphen. The branch name and file name of a published entry
// are both built from this value.
func Slugify(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), "-")
}
