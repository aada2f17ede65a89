package speech_test

import (
	"testing"

	"github.com/wordwise/wordwise/pkg/speech"
)

func TestSelectVoice(t *testing.T) {
	tests := []struct {
		name   string
		voices []speech.Voice
		want   string
		ok     bool
	}{
		{
			name: "empty",
			ok:   false,
		},
		{
			name:   "single generic voice",
			voices: []speech.Voice{{Name: "Generic US", Language: "en-US"}},
			want:   "Generic US",
			ok:     true,
		},
		{
			name: "google us english beats everything",
			voices: []speech.Voice{
				{Name: "Samantha", Language: "en-US"},
				{Name: "Microsoft Aria Online (Natural) - English (United States)", Language: "en-US"},
				{Name: "Google US English", Language: "en-US"},
			},
			want: "Google US English",
			ok:   true,
		},
		{
			name: "uk female over uk male",
			voices: []speech.Voice{
				{Name: "Google UK English Male", Language: "en-GB"},
				{Name: "Google UK English Female", Language: "en-GB"},
			},
			want: "Google UK English Female",
			ok:   true,
		},
		{
			name: "microsoft online neural requires locale",
			voices: []speech.Voice{
				{Name: "Microsoft Jenny Online (Natural) - English (Canada)", Language: "en-CA"},
				{Name: "Microsoft Guy Online (Natural) - English (United States)", Language: "en-US"},
			},
			want: "Microsoft Guy Online (Natural) - English (United States)",
			ok:   true,
		},
		{
			name: "sonia over ryan",
			voices: []speech.Voice{
				{Name: "Microsoft Ryan Online (Natural) - English (United Kingdom)", Language: "en-GB"},
				{Name: "Microsoft Sonia Online (Natural) - English (United Kingdom)", Language: "en_GB"},
			},
			want: "Microsoft Sonia Online (Natural) - English (United Kingdom)",
			ok:   true,
		},
		{
			name: "named system voices",
			voices: []speech.Voice{
				{Name: "Microsoft George - English (United Kingdom)", Language: "en-GB"},
				{Name: "Daniel", Language: "en-GB"},
				{Name: "Microsoft Zira - English (United States)", Language: "en-US"},
			},
			want: "Microsoft Zira - English (United States)",
			ok:   true,
		},
		{
			name: "inferred female en-US over male",
			voices: []speech.Voice{
				{Name: "english-us male", Language: "en-US"},
				{Name: "english-us female", Language: "EN-us"},
			},
			want: "english-us female",
			ok:   true,
		},
		{
			name: "en-US over other english regions",
			voices: []speech.Voice{
				{Name: "Voice A", Language: "en-AU"},
				{Name: "Voice B", Language: "en-GB"},
				{Name: "Voice C", Language: "en-US"},
			},
			want: "Voice C",
			ok:   true,
		},
		{
			name: "ties keep the first",
			voices: []speech.Voice{
				{Name: "Voice A", Language: "en-AU"},
				{Name: "Voice B", Language: "en-IE"},
			},
			want: "Voice A",
			ok:   true,
		},
		{
			name: "english preferred over non-english",
			voices: []speech.Voice{
				{Name: "Google Deutsch", Language: "de-DE"},
				{Name: "Voice B", Language: "en-IN"},
			},
			want: "Voice B",
			ok:   true,
		},
		{
			name: "no english falls back to first voice",
			voices: []speech.Voice{
				{Name: "Thomas", Language: "fr-FR"},
				{Name: "Anna", Language: "de-DE"},
			},
			want: "Thomas",
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := speech.SelectVoice(tt.voices)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got.Name != tt.want {
				t.Errorf("selected %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestSelectVoiceDeterministic(t *testing.T) {
	voices := []speech.Voice{
		{Name: "Karen", Language: "en-AU"},
		{Name: "Moira", Language: "en-IE"},
		{Name: "Tessa", Language: "en-ZA"},
	}
	first, _ := speech.SelectVoice(voices)
	for range 20 {
		got, _ := speech.SelectVoice(voices)
		if got != first {
			t.Fatalf("selection changed from %q to %q", first.Name, got.Name)
		}
	}
	if first.Name != "Karen" {
		t.Errorf("selected %q, want Karen", first.Name)
	}
}

func TestScoreVoice(t *testing.T) {
	tests := []struct {
		voice speech.Voice
		want  int
	}{
		{speech.Voice{Name: "Google US English", Language: "en-US"}, 100},
		{speech.Voice{Name: "Google UK English Female", Language: "en-GB"}, 95},
		{speech.Voice{Name: "Google UK English Male", Language: "en-GB"}, 90},
		{speech.Voice{Name: "Microsoft Aria Online (Natural)", Language: "en-US"}, 88},
		{speech.Voice{Name: "Microsoft Libby Online (Natural)", Language: "en-GB"}, 86},
		{speech.Voice{Name: "Microsoft Guy Online (Natural)", Language: "en-US"}, 84},
		{speech.Voice{Name: "Microsoft Ryan Online (Natural)", Language: "en-GB"}, 82},
		{speech.Voice{Name: "Samantha", Language: "en-US"}, 70},
		{speech.Voice{Name: "Microsoft Zira Desktop", Language: "en-US"}, 68},
		{speech.Voice{Name: "Alex", Language: "en-US"}, 66},
		{speech.Voice{Name: "Microsoft Hazel Desktop", Language: "en-GB"}, 64},
		{speech.Voice{Name: "Moira", Language: "en-IE"}, 62},
		{speech.Voice{Name: "Daniel", Language: "en-GB"}, 60},
		{speech.Voice{Name: "Microsoft David Desktop", Language: "en-US"}, 58},
		{speech.Voice{Name: "Microsoft George", Language: "en-GB"}, 56},
		{speech.Voice{Name: "Victoria", Language: "en-US"}, 40},
		{speech.Voice{Name: "Fiona", Language: "en-GB"}, 35},
		{speech.Voice{Name: "Fred", Language: "en-US"}, 30},
		{speech.Voice{Name: "Oliver", Language: "en-GB"}, 25},
		{speech.Voice{Name: "Generic", Language: "en-US"}, 20},
		{speech.Voice{Name: "Generic", Language: "en-GB"}, 15},
		{speech.Voice{Name: "Generic", Language: "en"}, 10},
		{speech.Voice{Name: "Google US English", Language: "de-DE"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.voice.Name+"/"+tt.voice.Language, func(t *testing.T) {
			if got := speech.ScoreVoice(tt.voice); got != tt.want {
				t.Errorf("ScoreVoice = %d, want %d", got, tt.want)
			}
		})
	}
}
