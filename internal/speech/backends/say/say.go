// Package say speaks through the macOS say command.
package say

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

func init() {
	registry.Platforms.Register("say", func(config map[string]string) (speech.Platform, error) {
		binaryPath := config["binary_path"]
		if binaryPath == "" {
			binaryPath = "say"
		}
		return New(binaryPath), nil
	})
}

// New returns a platform backed by the say binary at binaryPath.
func New(binaryPath string) *procutil.Runner {
	return procutil.New(procutil.Options{
		Binary:     binaryPath,
		Args:       Args,
		Stdin:      Input,
		ListVoices: listVoices,
	})
}

// Args maps an utterance to say flags. Text is read from stdin.
func Args(u *speech.Utterance) []string {
	args := []string{"-r", strconv.Itoa(procutil.Scale(u.Rate, 175, 60, 720))}
	if u.Voice.Name != "" {
		args = append(args, "-v", u.Voice.Name)
	}
	return append(args, "-f", "-")
}

// Input returns the text for stdin. say has no volume or pitch flags, so
// non-default values are set with embedded speech commands.
func Input(u *speech.Utterance) string {
	var b strings.Builder
	if u.Volume > 0 && u.Volume != 1 {
		fmt.Fprintf(&b, "[[volm %.2f]] ", u.Volume)
	}
	if u.Pitch > 0 && u.Pitch != 1 {
		fmt.Fprintf(&b, "[[pbas %d]] ", procutil.Scale(u.Pitch, 50, 0, 100))
	}
	b.WriteString(u.Text)
	return b.String()
}

func listVoices(ctx context.Context, binary string) ([]speech.Voice, error) {
	out, err := exec.CommandContext(ctx, binary, "-v", "?").Output()
	if err != nil {
		return nil, fmt.Errorf("say voices: %w", err)
	}
	return ParseVoices(out), nil
}

// ParseVoices reads the list printed by "say -v ?":
//
//	Samantha            en_US    # Hello, my name is Samantha.
//	Eddy (English (UK)) en_GB    # Hello! My name is Eddy.
func ParseVoices(out []byte) []speech.Voice {
	var voices []speech.Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		locale := fields[len(fields)-1]
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), locale))
		voices = append(voices, speech.Voice{
			Name:         name,
			Language:     speech.NormalizeLocale(locale),
			URI:          "com.apple.voice." + strings.ToLower(strings.ReplaceAll(name, " ", "-")),
			LocalService: true,
		})
	}
	return voices
}
