package speech

import "strings"

// Voice describes a speech synthesis voice exposed by the host platform.
type Voice struct {
	Name         string `json:"name"`
	Language     string `json:"lang"`
	URI          string `json:"uri,omitempty"`
	LocalService bool   `json:"local_service"`
	Default      bool   `json:"default"`
}

// Locale returns the voice language tag in "ll-RR" form.
func (v Voice) Locale() string {
	return NormalizeLocale(v.Language)
}

// IsEnglish reports whether the voice language is English in any region.
func (v Voice) IsEnglish() bool {
	loc := v.Locale()
	return loc == "en" || strings.HasPrefix(loc, "en-")
}

// NormalizeLocale rewrites tags such as "en_us" or "EN-gb" to "en-US" / "en-GB".
func NormalizeLocale(tag string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if tag == "" {
		return ""
	}
	parts := strings.Split(tag, "-")
	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		if len(parts[i]) == 2 {
			parts[i] = strings.ToUpper(parts[i])
		}
	}
	return strings.Join(parts, "-")
}

// EnglishVoices returns the English voices in list order.
func EnglishVoices(voices []Voice) []Voice {
	var out []Voice
	for _, v := range voices {
		if v.IsEnglish() {
			out = append(out, v)
		}
	}
	return out
}
