// Package chunk splits long text-to-speech input into ordered chunks
// that fit within an upstream-safe size bound, preferring sentence and
// clause boundaries over mid-word cuts.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// Chunk is one bounded slice of a longer text request. Ordinal is
// 0-based; Total is constant across a request's chunk set.
type Chunk struct {
	Text    string
	Ordinal int
	Total   int
}

// Split divides text into ordered chunks of at most maxChars runes.
// It is pure and deterministic: sentences are packed greedily, a
// sentence over the limit is re-split on clause punctuation, and a
// clause still over the limit is hard-sliced at the rune boundary so
// the algorithm always terminates. Empty (or all-whitespace) input
// yields no chunks.
func Split(text string, maxChars int) []Chunk {
	if maxChars <= 0 {
		maxChars = 1
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return finalize([]string{text})
	}

	var pieces []string
	var buf strings.Builder
	bufRunes := 0

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		pieces = append(pieces, buf.String())
		buf.Reset()
		bufRunes = 0
	}

	for _, sentence := range segments(text, isSentenceEnd) {
		n := utf8.RuneCountInString(sentence)
		if n > maxChars {
			flush()
			pieces = append(pieces, splitOversized(sentence, maxChars)...)
			continue
		}
		if bufRunes+n > maxChars {
			flush()
		}
		buf.WriteString(sentence)
		bufRunes += n
	}
	flush()

	return finalize(pieces)
}

// splitOversized breaks a single too-long sentence on clause
// punctuation, falling back to a hard rune slice for any clause that
// still exceeds the bound.
func splitOversized(sentence string, maxChars int) []string {
	var out []string
	var buf strings.Builder
	bufRunes := 0

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, buf.String())
		buf.Reset()
		bufRunes = 0
	}

	for _, clause := range segments(sentence, isClauseEnd) {
		n := utf8.RuneCountInString(clause)
		if n > maxChars {
			flush()
			out = append(out, hardSlice(clause, maxChars)...)
			continue
		}
		if bufRunes+n > maxChars {
			flush()
		}
		buf.WriteString(clause)
		bufRunes += n
	}
	flush()
	return out
}

// hardSlice cuts s into maxChars-rune pieces, never splitting a
// codepoint.
func hardSlice(s string, maxChars int) []string {
	var out []string
	for s != "" {
		cut := cutRunes(s, maxChars)
		if cut <= 0 {
			break
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	return out
}

// cutRunes returns the byte index after the first runes codepoints.
func cutRunes(s string, runes int) int {
	if runes <= 0 {
		return 0
	}
	i := 0
	for r := 0; r < runes && i < len(s); r++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			return i
		}
		i += size
	}
	return i
}

// segments splits s after each boundary rune, trims whitespace from
// every piece, and drops pieces that are pure whitespace.
func segments(s string, isBoundary func(rune) bool) []string {
	var out []string
	start := 0
	for i, r := range s {
		if !isBoundary(r) {
			continue
		}
		end := i + utf8.RuneLen(r)
		if seg := strings.TrimSpace(s[start:end]); seg != "" {
			out = append(out, seg)
		}
		start = end
	}
	if seg := strings.TrimSpace(s[start:]); seg != "" {
		out = append(out, seg)
	}
	return out
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isClauseEnd(r rune) bool {
	switch r {
	case ',', '，', ';', '；':
		return true
	}
	return false
}

func finalize(pieces []string) []Chunk {
	out := make([]Chunk, 0, len(pieces))
	for i, p := range pieces {
		out = append(out, Chunk{Text: p, Ordinal: i, Total: len(pieces)})
	}
	return out
}
