package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// aliases maps word forms and ISO 639-2/B codes that BCP 47 parsing rejects.
var aliases = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"fre":        "fr",
	"german":     "de",
	"ger":        "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"chi":        "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"dut":        "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
	"vietnamese": "vi",
	"thai":       "th",
	"indonesian": "id",
	"turkish":    "tr",
}

// Parse resolves code to a canonical BCP 47 tag.
func Parse(code string) (language.Tag, error) {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" {
		return language.Und, fmt.Errorf("language code is empty")
	}
	if mapped, ok := aliases[trimmed]; ok {
		trimmed = mapped
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return language.Und, fmt.Errorf("unsupported language %q: %w", code, err)
	}
	if tag == language.Und {
		return language.Und, fmt.Errorf("unsupported language %q", code)
	}
	return tag, nil
}

// Normalize returns the canonical string form of code ("KOR" -> "ko",
// "pt_br" -> "pt-BR").
func Normalize(code string) (string, error) {
	tag, err := Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

// ToISO2 returns the base language subtag, or "" when code is not recognized.
func ToISO2(code string) string {
	tag, err := Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}

// DisplayName returns the English name for code. Returns "Unknown" for empty
// input and the uppercased code when it cannot be parsed.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	tag, err := Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
