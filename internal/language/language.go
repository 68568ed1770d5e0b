// Package language normalises the spoken-language option sent with uploads
// and names the language the backend detected.
package language

import (
	"fmt"
	"strings"
	"sync"

	textlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto asks the backend to detect the spoken language.
const Auto = "auto"

// common lists the languages accepted by English name as well as by code.
var common = []textlang.Tag{
	textlang.English, textlang.Spanish, textlang.French, textlang.German,
	textlang.Italian, textlang.Portuguese, textlang.Japanese, textlang.Korean,
	textlang.Chinese, textlang.Russian, textlang.Arabic, textlang.Hindi,
	textlang.Dutch, textlang.Polish, textlang.Swedish, textlang.Danish,
	textlang.Norwegian, textlang.Finnish, textlang.Turkish, textlang.Ukrainian,
}

var byName = sync.OnceValue(func() map[string]string {
	namer := display.English.Languages()
	out := make(map[string]string, len(common))
	for _, tag := range common {
		base, _ := tag.Base()
		out[strings.ToLower(namer.Name(tag))] = base.String()
	}
	return out
})

// Normalize maps a language option to the value the backend expects. Empty
// input stays empty so the server default applies, "auto" requests
// detection, and English names or BCP 47 tags become the base language code.
func Normalize(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "":
		return "", nil
	case Auto:
		return Auto, nil
	}
	if code, ok := byName()[value]; ok {
		return code, nil
	}
	tag, err := textlang.Parse(value)
	if err != nil {
		return "", fmt.Errorf("unknown language %q", value)
	}
	base, confidence := tag.Base()
	if confidence != textlang.Exact {
		return "", fmt.Errorf("unknown language %q", value)
	}
	return base.String(), nil
}

// DisplayName renders a language code for people, e.g. "de" as "German".
// Unrecognised codes are upper-cased.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	switch strings.ToLower(code) {
	case "":
		return "Unknown"
	case Auto:
		return "Auto-detect"
	}
	tag, err := textlang.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}
