package models

import "fmt"

// Language is the closed set of storefront languages.
type Language string

const (
	LanguageThai    Language = "th"
	LanguageEnglish Language = "en"
	LanguageChinese Language = "zh"
)

// ParseLanguage validates a wire-level language tag.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LanguageThai, LanguageEnglish, LanguageChinese:
		return Language(s), nil
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

func (l Language) Valid() bool {
	_, err := ParseLanguage(string(l))
	return err == nil
}

// LocalizedText carries one value per supported language. Entities embed it
// per field so lookups are an exhaustive switch instead of runtime key guessing.
type LocalizedText struct {
	TH string `json:"th"`
	EN string `json:"en"`
	ZH string `json:"zh"`
}

// In returns the value for lang, falling back to English when the
// localized value is empty.
func (t LocalizedText) In(lang Language) string {
	var v string
	switch lang {
	case LanguageThai:
		v = t.TH
	case LanguageEnglish:
		v = t.EN
	case LanguageChinese:
		v = t.ZH
	}
	if v == "" {
		return t.EN
	}
	return v
}
