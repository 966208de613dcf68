// Package nlp provides the lightweight text analysis shared by the
// analyzers: tokenization, sentence splitting, stopword filtering, TF-IDF
// keyword extraction, and the fixed marker lexicons (fillers, transitions,
// discourse markers).
//
// Everything here is deterministic and allocation-light; no external NLP
// runtime is involved. Reference tables that can be overridden at runtime
// (stopwords, word frequencies) live in internal/refdata — this package
// carries only the built-in defaults.
package nlp

import (
	"strings"
	"unicode"
)

// Tokenize splits text into lowercase word tokens. Internal apostrophes and
// hyphens are kept ("don't", "well-known"); all other punctuation is
// dropped.
func Tokenize(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		w := strings.Trim(b.String(), "'-")
		if w != "" {
			out = append(out, w)
		}
		b.Reset()
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case (r == '\'' || r == '-') && b.Len() > 0:
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return out
}

// Sentences splits text into sentences on terminal punctuation. Consecutive
// terminators collapse; text without any terminator is one sentence.
func Sentences(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		s := strings.TrimSpace(b.String())
		if s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()
	return out
}

// ContentWords returns the tokens of text minus stopwords and tokens
// shorter than three runes.
func ContentWords(text string, stop map[string]bool) []string {
	var out []string
	for _, w := range Tokenize(text) {
		if len(w) < 3 || stop[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// CountOccurrences counts whole-token occurrences of each phrase in text.
// Multi-word phrases are matched against the token stream, not substrings,
// so "so" does not match inside "sofa".
func CountOccurrences(tokens []string, phrases []string) int {
	count := 0
	for _, phrase := range phrases {
		parts := strings.Fields(phrase)
		switch len(parts) {
		case 0:
			continue
		case 1:
			for _, tok := range tokens {
				if tok == parts[0] {
					count++
				}
			}
		default:
			for i := 0; i+len(parts) <= len(tokens); i++ {
				match := true
				for j, p := range parts {
					if tokens[i+j] != p {
						match = false
						break
					}
				}
				if match {
					count++
				}
			}
		}
	}
	return count
}

// ContainsAny reports whether any of the phrases occurs in the lowercase
// text as a substring. Used for multi-word marker phrases where token-exact
// matching is too strict ("I would like to").
func ContainsAny(lowerText string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lowerText, p) {
			return true
		}
	}
	return false
}
