package preprocess

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"text2phenotype.com/gst/logger"
)

// ReadText reads r line by line, every line closed by '\n'.
func ReadText(r io.Reader) (string, error) {
	var sb strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ReadCorpus reads a terminated corpus written one or more lines per
// document. Line breaks never reach the result: a line following a
// terminator is appended directly, any other line after a blank. Empty lines
// are skipped.
func ReadCorpus(r io.Reader, terminator rune) (string, error) {
	var sb strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	last := terminator
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if sb.Len() > 0 && last != terminator {
			sb.WriteByte(' ')
		}
		sb.WriteString(line)
		last, _ = utf8.DecodeLastRuneInString(line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Filter keeps the phrases (lines) of text whose number of blank separated
// words lies in [min, max]. min == max == 0 disables filtering.
func Filter(text string, min int, max int) string {
	if min == 0 && max == 0 {
		return text
	}
	gstLogger := logger.NewLogger("Phrase filter").With().Int("min", min).Int("max", max).Logger()

	var sb strings.Builder
	kept, dropped := 0, 0
	for _, phrase := range Phrases(text) {
		n := WordCount(phrase)
		if n < min || n > max {
			dropped++
			continue
		}
		sb.WriteString(phrase)
		sb.WriteByte('\n')
		kept++
	}
	gstLogger.Debug().Int("kept", kept).Int("dropped", dropped).Msg("Phrases filtered")
	return sb.String()
}

// Phrases splits normalized text into its lines, dropping trailing empty ones.
func Phrases(text string) []string {
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func WordCount(phrase string) int {
	words := strings.Split(phrase, " ")
	for len(words) > 1 && words[len(words)-1] == "" {
		words = words[:len(words)-1]
	}
	return len(words)
}
