package filter

import (
	"strings"

	"github.com/sellotec/backend/internal/models"
)

// Match is one blocklisted term found inside a message.
type Match struct {
	Term     string
	Category models.Category
}

// blocklist holds the static phrases the portal refuses between students.
// Matching is plain substring containment on the lower-cased text, no word
// boundaries: an embedded phrase still counts.
var blocklist = []Match{
	// Romantic or explicit language, minors-safety policy
	{Term: "te amo", Category: models.CategorySexual},
	{Term: "te deseo", Category: models.CategorySexual},
	{Term: "dame un beso", Category: models.CategorySexual},
	{Term: "besame", Category: models.CategorySexual},
	{Term: "eres muy sexy", Category: models.CategorySexual},
	{Term: "mandame una foto", Category: models.CategorySexual},
	{Term: "sexo", Category: models.CategorySexual},
	{Term: "desnud", Category: models.CategorySexual},

	// Insults and threats
	{Term: "te voy a pegar", Category: models.CategoryBullying},
	{Term: "te voy a matar", Category: models.CategoryBullying},
	{Term: "nadie te quiere", Category: models.CategoryBullying},
	{Term: "eres un idiota", Category: models.CategoryBullying},
	{Term: "eres una idiota", Category: models.CategoryBullying},
	{Term: "imbecil", Category: models.CategoryBullying},
	{Term: "estupido", Category: models.CategoryBullying},
	{Term: "estupida", Category: models.CategoryBullying},

	// Slurs
	{Term: "maricon", Category: models.CategoryDiscriminacion},
	{Term: "retrasado mental", Category: models.CategoryDiscriminacion},
	{Term: "negro asqueroso", Category: models.CategoryDiscriminacion},
	{Term: "india asquerosa", Category: models.CategoryDiscriminacion},
}

// Detect scans text against the blocklist and returns every match, in
// blocklist order. Empty result means the content is clean.
func Detect(text string) []Match {
	lower := strings.ToLower(text)

	var matches []Match
	for _, entry := range blocklist {
		if strings.Contains(lower, entry.Term) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// Classify returns the category of the first match. The admin dashboard
// groups flags by this single category even when a message trips terms from
// more than one group.
func Classify(matches []Match) models.Category {
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Category
}

// Terms extracts just the matched phrases, for the audit record.
func Terms(matches []Match) []string {
	terms := make([]string, 0, len(matches))
	for _, m := range matches {
		terms = append(terms, m.Term)
	}
	return terms
}
