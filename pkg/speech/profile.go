package speech

import (
	"strings"
	"unicode"
)

// Quality is the coarse tier a voice falls into.
type Quality string

const (
	QualityPremium Quality = "premium"
	QualityHigh    Quality = "high"
	QualityMedium  Quality = "medium"
	QualityLow     Quality = "low"
)

// Gender is inferred from the voice name.
type Gender string

const (
	GenderFemale  Gender = "female"
	GenderMale    Gender = "male"
	GenderUnknown Gender = "unknown"
)

// Profile is derived information about a voice. It is computed on demand.
type Profile struct {
	Voice    Voice   `json:"voice"`
	Score    int     `json:"score"`
	Quality  Quality `json:"quality"`
	Provider string  `json:"provider"`
	Gender   Gender  `json:"gender"`
	Accent   string  `json:"accent"`
}

// Classify builds the profile of a voice.
func Classify(v Voice) Profile {
	score := ScoreVoice(v)
	return Profile{
		Voice:    v,
		Score:    score,
		Quality:  QualityFor(score),
		Provider: InferProvider(v),
		Gender:   InferGender(v.Name),
		Accent:   AccentFor(v.Locale()),
	}
}

// QualityFor maps a selection score to a quality tier.
func QualityFor(score int) Quality {
	switch {
	case score >= 80:
		return QualityPremium
	case score >= 50:
		return QualityHigh
	case score >= 10:
		return QualityMedium
	default:
		return QualityLow
	}
}

var (
	femaleNames = map[string]struct{}{
		"samantha": {}, "karen": {}, "moira": {}, "tessa": {}, "victoria": {},
		"fiona": {}, "veena": {}, "zira": {}, "hazel": {}, "susan": {},
		"aria": {}, "jenny": {}, "sonia": {}, "libby": {}, "serena": {},
		"allison": {}, "ava": {}, "kate": {}, "amy": {}, "emma": {},
		"joanna": {}, "salli": {}, "kimberly": {}, "ivy": {}, "kendra": {},
		"olivia": {}, "natasha": {}, "clara": {}, "michelle": {}, "heather": {},
	}
	maleNames = map[string]struct{}{
		"alex": {}, "daniel": {}, "david": {}, "george": {}, "mark": {},
		"guy": {}, "ryan": {}, "fred": {}, "tom": {}, "oliver": {},
		"arthur": {}, "aaron": {}, "rishi": {}, "thomas": {}, "brian": {},
		"matthew": {}, "justin": {}, "joey": {}, "william": {}, "james": {},
		"christopher": {}, "eric": {}, "roger": {}, "steffan": {},
	}
	// Voices whose names carry no gender hint.
	knownGenders = map[string]Gender{
		"google us english": GenderFemale,
	}
	appleNames = map[string]struct{}{
		"samantha": {}, "alex": {}, "daniel": {}, "karen": {}, "moira": {},
		"tessa": {}, "fiona": {}, "victoria": {}, "fred": {}, "veena": {},
		"rishi": {}, "oliver": {}, "allison": {}, "ava": {}, "tom": {},
		"susan": {}, "serena": {}, "kate": {},
	}
)

// InferGender guesses a gender from explicit markers or well-known first names.
func InferGender(name string) Gender {
	lower := strings.ToLower(name)
	for known, g := range knownGenders {
		if strings.Contains(lower, known) {
			return g
		}
	}

	tokens := nameTokens(name)
	for _, tok := range tokens {
		switch tok {
		case "female", "woman":
			return GenderFemale
		case "male", "man":
			return GenderMale
		}
	}
	for _, tok := range tokens {
		if _, ok := femaleNames[tok]; ok {
			return GenderFemale
		}
		if _, ok := maleNames[tok]; ok {
			return GenderMale
		}
	}
	return GenderUnknown
}

// InferProvider names the vendor family of a voice.
func InferProvider(v Voice) string {
	tokens := nameTokens(v.Name)
	for _, tok := range tokens {
		switch tok {
		case "google":
			return "Google"
		case "microsoft":
			return "Microsoft"
		case "amazon", "polly":
			return "Amazon"
		case "espeak":
			return "eSpeak"
		}
	}
	if strings.HasPrefix(v.URI, "com.apple.") {
		return "Apple"
	}
	for _, tok := range tokens {
		if _, ok := appleNames[tok]; ok {
			return "Apple"
		}
	}
	if v.LocalService {
		return "System"
	}
	return "Unknown"
}

// AccentFor names the accent region of an English locale.
func AccentFor(locale string) string {
	switch locale {
	case "en-US":
		return "American"
	case "en-GB":
		return "British"
	case "en-AU":
		return "Australian"
	case "en-CA":
		return "Canadian"
	case "en-IE":
		return "Irish"
	case "en-IN":
		return "Indian"
	case "en-NZ":
		return "New Zealand"
	case "en-ZA":
		return "South African"
	case "en-GB-scotland":
		return "Scottish"
	}
	if locale == "en" || strings.HasPrefix(locale, "en-") {
		return "English"
	}
	return "Other"
}

func nameTokens(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
