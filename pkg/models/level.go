package models

import "strings"

// levelVocabulary maps case-folded level labels to the normalized form.
// Empty maps to "Not Specified"; anything outside the vocabulary is
// title-cased as-is rather than guessed into a bucket.
var levelVocabulary = map[string]string{
	"beginner":              "Beginner",
	"beginner-intermediate": "Beginner-Intermediate",
	"intermediate":          "Intermediate",
	"intermediate-advanced": "Intermediate-Advanced",
	"advanced":              "Advanced",
	"associate":             "Associate",
	"professional":          "Professional",
	"expert":                "Expert",
	"":                      "Not Specified",
}

// NormalizeLevel maps a free-text level label onto the normalized
// vocabulary.
func NormalizeLevel(level string) string {
	key := strings.ToLower(strings.TrimSpace(level))
	if normalized, ok := levelVocabulary[key]; ok {
		return normalized
	}
	return titleCase(key)
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
