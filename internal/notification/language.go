package notification

import "strings"

const (
	English  = "english"
	Hindi    = "hindi"
	Bengali  = "bengali"
	Assamese = "assamese"
	Telugu   = "telugu"
)

var languageCodes = map[string]string{
	"en": English,
	"hi": Hindi,
	"bn": Bengali,
	"as": Assamese,
	"te": Telugu,
}

// NormalizeLanguage maps ISO codes to the language names templates are keyed
// by. Blank input means english.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return English
	}
	if name, ok := languageCodes[lang]; ok {
		return name
	}
	return lang
}
