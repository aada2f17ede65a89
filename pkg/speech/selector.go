package speech

import "strings"

// scoreRule awards score to a voice whose lowercase name contains every entry
// of all, at least one entry of oneOf (when set), and whose locale and inferred
// gender match (when set). A locale of "en" matches every English voice.
type scoreRule struct {
	score  int
	all    []string
	oneOf  []string
	locale string
	gender Gender
}

// scoreRules is ordered by descending score; the first match wins.
var scoreRules = []scoreRule{
	{score: 100, all: []string{"google us english"}},
	{score: 95, all: []string{"google uk english female"}},
	{score: 90, all: []string{"google uk english male"}},
	{score: 88, all: []string{"microsoft", "online"}, oneOf: []string{"aria", "jenny"}, locale: "en-US"},
	{score: 86, all: []string{"microsoft", "online"}, oneOf: []string{"sonia", "libby"}, locale: "en-GB"},
	{score: 84, all: []string{"microsoft", "online", "guy"}, locale: "en-US"},
	{score: 82, all: []string{"microsoft", "online", "ryan"}, locale: "en-GB"},
	{score: 70, all: []string{"samantha"}},
	{score: 68, all: []string{"microsoft zira"}},
	{score: 66, all: []string{"alex"}},
	{score: 64, all: []string{"microsoft hazel"}},
	{score: 62, oneOf: []string{"karen", "moira", "tessa"}},
	{score: 60, all: []string{"daniel"}},
	{score: 58, all: []string{"microsoft david"}},
	{score: 56, all: []string{"microsoft george"}},
	{score: 40, locale: "en-US", gender: GenderFemale},
	{score: 35, locale: "en-GB", gender: GenderFemale},
	{score: 30, locale: "en-US", gender: GenderMale},
	{score: 25, locale: "en-GB", gender: GenderMale},
	{score: 20, locale: "en-US"},
	{score: 15, locale: "en-GB"},
	{score: 10, locale: "en"},
}

func (r scoreRule) matches(name, locale string, gender Gender) bool {
	for _, s := range r.all {
		if !strings.Contains(name, s) {
			return false
		}
	}
	if len(r.oneOf) > 0 {
		found := false
		for _, s := range r.oneOf {
			if strings.Contains(name, s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	switch r.locale {
	case "":
	case "en":
		if locale != "en" && !strings.HasPrefix(locale, "en-") {
			return false
		}
	default:
		if locale != r.locale {
			return false
		}
	}
	if r.gender != "" && gender != r.gender {
		return false
	}
	return true
}

// ScoreVoice returns the score of the first rule the voice matches, or 0.
// Non-English voices are never scored.
func ScoreVoice(v Voice) int {
	if !v.IsEnglish() {
		return 0
	}
	name := strings.ToLower(v.Name)
	locale := v.Locale()
	gender := InferGender(v.Name)
	for _, r := range scoreRules {
		if r.matches(name, locale, gender) {
			return r.score
		}
	}
	return 0
}

// SelectVoice picks the best voice from voices. English voices are ranked by
// ScoreVoice with ties kept in list order; when nothing scores the first
// English voice wins. Without English voices the first voice is used.
func SelectVoice(voices []Voice) (Voice, bool) {
	english := EnglishVoices(voices)
	if len(english) == 0 {
		if len(voices) == 0 {
			return Voice{}, false
		}
		return voices[0], true
	}

	best, bestScore := english[0], 0
	for _, v := range english {
		if s := ScoreVoice(v); s > bestScore {
			best, bestScore = v, s
		}
	}
	return best, true
}
