package mossy

import (
	"strings"

	enry "github.com/go-enry/go-enry/v2"

	"github.com/mossy-run/mossy/internal/lang"
)

// DetectLanguage is a convenience wrapper around go-enry's filename/content
// classifier, mapping its result onto the core's closed Language set. It
// is not on the mandatory Analyze path — callers that already know the
// submission language (the normal case for an assignment cohort) should
// pass it directly. Returns false if enry's guess isn't one of the three
// supported languages.
func DetectLanguage(path, content string) (string, bool) {
	langs := enry.GetLanguagesByFilename(path, []byte(content), nil)
	if len(langs) == 0 {
		langs = enry.GetLanguagesByContent(path, []byte(content), nil)
	}
	for _, name := range langs {
		if tag, ok := enryToTag(name); ok {
			return tag, true
		}
	}
	return "", false
}

func enryToTag(enryLanguage string) (string, bool) {
	switch strings.ToLower(enryLanguage) {
	case "java":
		return lang.Java.String(), true
	case "python":
		return lang.Python.String(), true
	case "c":
		return lang.C.String(), true
	default:
		return "", false
	}
}
