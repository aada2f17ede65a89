package speech_test

import (
	"testing"

	"github.com/wordwise/wordwise/pkg/speech"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		voice    speech.Voice
		quality  speech.Quality
		provider string
		gender   speech.Gender
		accent   string
	}{
		{
			voice:    speech.Voice{Name: "Google US English", Language: "en-US"},
			quality:  speech.QualityPremium,
			provider: "Google",
			gender:   speech.GenderFemale,
			accent:   "American",
		},
		{
			voice:    speech.Voice{Name: "Microsoft Ryan Online (Natural) - English (United Kingdom)", Language: "en-GB"},
			quality:  speech.QualityPremium,
			provider: "Microsoft",
			gender:   speech.GenderMale,
			accent:   "British",
		},
		{
			voice:    speech.Voice{Name: "Karen", Language: "en_AU", LocalService: true},
			quality:  speech.QualityHigh,
			provider: "Apple",
			gender:   speech.GenderFemale,
			accent:   "Australian",
		},
		{
			voice:    speech.Voice{Name: "english-us", Language: "en-US", LocalService: true},
			quality:  speech.QualityMedium,
			provider: "System",
			gender:   speech.GenderUnknown,
			accent:   "American",
		},
		{
			voice:    speech.Voice{Name: "Anna", Language: "de-DE"},
			quality:  speech.QualityLow,
			provider: "Unknown",
			gender:   speech.GenderUnknown,
			accent:   "Other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.voice.Name, func(t *testing.T) {
			p := speech.Classify(tt.voice)
			if p.Quality != tt.quality {
				t.Errorf("quality = %s, want %s", p.Quality, tt.quality)
			}
			if p.Provider != tt.provider {
				t.Errorf("provider = %s, want %s", p.Provider, tt.provider)
			}
			if p.Gender != tt.gender {
				t.Errorf("gender = %s, want %s", p.Gender, tt.gender)
			}
			if p.Accent != tt.accent {
				t.Errorf("accent = %s, want %s", p.Accent, tt.accent)
			}
		})
	}
}

func TestQualityFor(t *testing.T) {
	tests := map[int]speech.Quality{
		100: speech.QualityPremium,
		80:  speech.QualityPremium,
		79:  speech.QualityHigh,
		50:  speech.QualityHigh,
		49:  speech.QualityMedium,
		10:  speech.QualityMedium,
		9:   speech.QualityLow,
		0:   speech.QualityLow,
	}
	for score, want := range tests {
		if got := speech.QualityFor(score); got != want {
			t.Errorf("QualityFor(%d) = %s, want %s", score, got, want)
		}
	}
}

func TestNormalizeLocale(t *testing.T) {
	tests := map[string]string{
		"en-US":   "en-US",
		"en_us":   "en-US",
		"EN-gb":   "en-GB",
		"en":      "en",
		"":        "",
		"zh-Hans": "zh-Hans",
	}
	for in, want := range tests {
		if got := speech.NormalizeLocale(in); got != want {
			t.Errorf("NormalizeLocale(%q) = %q, want %q", in, got, want)
		}
	}
}
