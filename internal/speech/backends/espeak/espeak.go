// Package espeak speaks through the espeak-ng command-line synthesizer.
package espeak

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/wordwise/wordwise/internal/speech/backends/procutil"
	"github.com/wordwise/wordwise/internal/speech/registry"
	"github.com/wordwise/wordwise/pkg/speech"
)

const defaultBinary = "espeak-ng"

func init() {
	registry.Platforms.Register("espeak", func(config map[string]string) (speech.Platform, error) {
		binaryPath := config["binary_path"]
		if binaryPath == "" {
			binaryPath = defaultBinary
		}
		return New(binaryPath), nil
	})
}

// New returns a platform backed by the espeak-ng binary at binaryPath.
func New(binaryPath string) *procutil.Runner {
	return procutil.New(procutil.Options{
		Binary:     binaryPath,
		Args:       Args,
		Stdin:      func(u *speech.Utterance) string { return u.Text },
		ListVoices: listVoices,
	})
}

// Args maps an utterance to espeak-ng flags: words per minute, 0-99 pitch
// and 0-200 amplitude. Text is read from stdin.
func Args(u *speech.Utterance) []string {
	args := []string{
		"-s", strconv.Itoa(procutil.Scale(u.Rate, 175, 80, 450)),
		"-p", strconv.Itoa(procutil.Scale(u.Pitch, 50, 0, 99)),
		"-a", strconv.Itoa(procutil.Scale(u.Volume, 100, 0, 200)),
	}
	if id := voiceID(u.Voice); id != "" {
		args = append(args, "-v", id)
	}
	return append(args, "--stdin")
}

func voiceID(v speech.Voice) string {
	if v.URI != "" {
		return v.URI
	}
	return strings.ToLower(v.Language)
}

func listVoices(ctx context.Context, binary string) ([]speech.Voice, error) {
	out, err := exec.CommandContext(ctx, binary, "--voices=en").Output()
	if err != nil {
		return nil, fmt.Errorf("espeak voices: %w", err)
	}
	return ParseVoices(out), nil
}

// ParseVoices reads the table printed by "espeak-ng --voices":
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US            (en 8)
func ParseVoices(out []byte) []speech.Voice {
	var voices []speech.Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		lang := fields[1]
		voices = append(voices, speech.Voice{
			Name:         "eSpeak " + strings.ReplaceAll(fields[3], "_", " "),
			Language:     speech.NormalizeLocale(lang),
			URI:          lang,
			LocalService: true,
		})
	}
	if len(voices) > 0 {
		voices[0].Default = true
	}
	return voices
}
