package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// commonSongLanguages are accepted by English name as well as by code.
var commonSongLanguages = []string{
	"en", "hi", "mr", "bn", "ta", "te", "pa", "gu", "ur", "kn", "ml",
	"es", "fr", "de", "it", "pt", "ja", "ko", "zh", "ru", "ar", "tr",
}

var byName map[string]language.Base

func init() {
	namer := display.English.Languages()
	byName = make(map[string]language.Base, len(commonSongLanguages))
	for _, code := range commonSongLanguages {
		base := language.MustParseBase(code)
		if name := strings.ToLower(namer.Name(base)); name != "" {
			byName[name] = base
		}
	}
}

func parse(code string) (language.Base, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(code))
	if cleaned == "" {
		return language.Base{}, false
	}
	if base, ok := byName[cleaned]; ok {
		return base, true
	}
	if tag, err := language.Parse(cleaned); err == nil {
		if base, confidence := tag.Base(); confidence != language.No {
			return base, true
		}
	}
	return language.Base{}, false
}

// ToISO2 returns the shortest ISO 639 code for code (two letters when one
// exists), accepting 2- or 3-letter codes, BCP 47 tags and common English
// names. Unknown input yields "".
func ToISO2(code string) string {
	base, ok := parse(code)
	if !ok {
		return ""
	}
	return base.String()
}

// ToISO3 returns the ISO 639-2/3 code, or "und" when unknown.
func ToISO3(code string) string {
	base, ok := parse(code)
	if !ok {
		return "und"
	}
	return base.ISO3()
}

// DisplayName returns the English name of the language, or the trimmed input
// upper-cased when unknown.
func DisplayName(code string) string {
	base, ok := parse(code)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return base.String()
}

// Valid reports whether code names a recognizable language.
func Valid(code string) bool {
	_, ok := parse(code)
	return ok
}
