// Package mentions extracts @name references from message text and
// resolves them against a user roster.
package mentions

import (
	"regexp"
	"strconv"
	"strings"

	"community-chat/internal/models"
)

// A candidate is "@" followed by one or more words, greedily extending
// across single spaces. Multi-word display names are the point of the
// greedy match; resolution trims it back against the roster.
var candidatePattern = regexp.MustCompile(`@(\w+(?: \w+)*)`)

// Parse returns the raw mention candidates in order of appearance.
func Parse(text string) []string {
	matches := candidatePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, m[1])
	}
	return candidates
}

// Resolve parses text and attaches user identity to every candidate
// that names someone in the roster. A candidate resolves to the
// longest word-prefix of itself that equals a roster display name,
// case-insensitively; the longer of two overlapping names wins.
// Unresolved candidates are dropped: they stay visible as plain @name
// text but produce no structured mention.
func Resolve(text string, roster []models.User) models.Mentions {
	var resolved models.Mentions
	for _, candidate := range Parse(text) {
		if user, ok := matchLongest(candidate, roster); ok {
			resolved = append(resolved, models.Mention{
				UserID:    strconv.Itoa(user.ID),
				UserName:  user.Name,
				UserEmail: user.Email,
			})
		}
	}
	return resolved
}

func matchLongest(candidate string, roster []models.User) (models.User, bool) {
	words := strings.Split(candidate, " ")
	for n := len(words); n >= 1; n-- {
		prefix := strings.Join(words[:n], " ")
		for _, user := range roster {
			if strings.EqualFold(user.Name, prefix) {
				return user, true
			}
		}
	}
	return models.User{}, false
}
