package judge

import "strings"

// Language is one selectable execution target. IDs follow the judge's
// language table.
type Language struct {
	ID    int
	Name  string
	Value string
}

var languageOptions = []Language{
	{ID: 63, Name: "JavaScript (Node.js 12.14.0)", Value: "javascript"},
	{ID: 71, Name: "Python (3.8.1)", Value: "python"},
	{ID: 54, Name: "C++ (GCC 9.2.0)", Value: "cpp"},
	{ID: 50, Name: "C (GCC 9.2.0)", Value: "c"},
	{ID: 62, Name: "Java (OpenJDK 13.0.1)", Value: "java"},
	{ID: 60, Name: "Go (1.13.5)", Value: "go"},
	{ID: 74, Name: "TypeScript (3.7.4)", Value: "typescript"},
	{ID: 51, Name: "C# (Mono 6.6.0.161)", Value: "csharp"},
	{ID: 72, Name: "Ruby (2.7.0)", Value: "ruby"},
	{ID: 73, Name: "Rust (1.40.0)", Value: "rust"},
}

// Languages returns the selectable language options in display order.
func Languages() []Language {
	out := make([]Language, len(languageOptions))
	copy(out, languageOptions)
	return out
}

// DefaultLanguage is the editor's initial selection.
func DefaultLanguage() Language {
	return languageOptions[0]
}

// LanguageByValue resolves a language by its short value, case-insensitive.
func LanguageByValue(value string) (Language, bool) {
	for _, lang := range languageOptions {
		if strings.EqualFold(lang.Value, value) {
			return lang, true
		}
	}
	return Language{}, false
}

// LanguageByID resolves a language by judge id.
func LanguageByID(id int) (Language, bool) {
	for _, lang := range languageOptions {
		if lang.ID == id {
			return lang, true
		}
	}
	return Language{}, false
}
