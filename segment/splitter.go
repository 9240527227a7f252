package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/serisow/narrador/narration_type"
)

// DefaultCharCap bounds grouped segments in long-form mode.
const DefaultCharCap = 300

// Splitter turns raw text into ordered narration segments.
type Splitter struct {
	// Grouped joins adjacent sentences while they stay under CharCap runes.
	Grouped bool
	CharCap int
}

// NewSplitter returns a sentence-per-segment splitter.
func NewSplitter() *Splitter {
	return &Splitter{CharCap: DefaultCharCap}
}

// Split returns the segment texts in original order. Empty or
// whitespace-only input yields no segments.
func (s *Splitter) Split(text string) []string {
	sentences := Sentences(text)
	if !s.Grouped {
		return sentences
	}
	limit := s.CharCap
	if limit <= 0 {
		limit = DefaultCharCap
	}
	return group(sentences, limit)
}

// Segments wraps Split with 1-based indexes.
func (s *Splitter) Segments(text string) []narration_type.Segment {
	texts := s.Split(text)
	segments := make([]narration_type.Segment, len(texts))
	for i, t := range texts {
		segments[i] = narration_type.Segment{Index: i + 1, Text: t}
	}
	return segments
}

// Sentences splits on runs of sentence terminators. Each kept fragment ends
// with the terminator run that closed it; a trailing fragment without one is
// returned trimmed and unchanged. Non-blank text always yields at least one
// sentence.
func Sentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes, i) {
			continue
		}
		end := i + 1
		for end < len(runes) && isTerminator(runes, end) {
			end++
		}
		if frag := strings.TrimSpace(string(runes[start:i])); frag != "" {
			out = append(out, frag+string(runes[i:end]))
		}
		start = end
		i = end - 1
	}
	if frag := strings.TrimSpace(string(runes[start:])); frag != "" {
		out = append(out, frag)
	}
	// Text made only of terminators is still narrated as one segment.
	if len(out) == 0 {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isTerminator(runes []rune, i int) bool {
	switch runes[i] {
	case '!', '?', '…':
		return true
	case '.':
		// decimal point
		if i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
			return false
		}
		return true
	}
	return false
}

func group(sentences []string, limit int) []string {
	var out []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() == 0 {
			current.WriteString(sentence)
			continue
		}
		if utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(sentence) < limit {
			current.WriteByte(' ')
			current.WriteString(sentence)
			continue
		}
		out = append(out, current.String())
		current.Reset()
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}
