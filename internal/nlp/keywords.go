package nlp

import (
	"math"
	"sort"
	"strings"
)

// Keyword is a term with its TF-IDF weight.
type Keyword struct {
	Term  string
	Score float64
}

// ExtractKeywords returns the top-n content words of text ranked by TF-IDF,
// treating each sentence as one document for the IDF term. Ties break
// alphabetically so the ranking is stable across runs.
func ExtractKeywords(text string, n int, stop map[string]bool) []Keyword {
	if stop == nil {
		stop = DefaultStopwords
	}
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil
	}

	tf := make(map[string]int)
	df := make(map[string]int)
	for _, sent := range sentences {
		seen := make(map[string]bool)
		for _, w := range ContentWords(sent, stop) {
			tf[w]++
			if !seen[w] {
				df[w]++
				seen[w] = true
			}
		}
	}
	if len(tf) == 0 {
		return nil
	}

	nDocs := float64(len(sentences))
	keywords := make([]Keyword, 0, len(tf))
	for term, count := range tf {
		idf := math.Log(1+nDocs/float64(df[term])) + 1
		keywords = append(keywords, Keyword{Term: term, Score: float64(count) * idf})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Score != keywords[j].Score {
			return keywords[i].Score > keywords[j].Score
		}
		return keywords[i].Term < keywords[j].Term
	})
	if n > 0 && len(keywords) > n {
		keywords = keywords[:n]
	}
	return keywords
}

// Terms projects keywords onto their terms, preserving rank order.
func Terms(keywords []Keyword) []string {
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = k.Term
	}
	return out
}

// KeyPhrases extracts phrases a speaker would be expected to emphasize:
// adjacent content-word pairs, repeated content words, and the context
// around emphasis indicator words. Results are lowercase, deduplicated,
// and ordered by first appearance.
func KeyPhrases(text string, stop map[string]bool) []string {
	if stop == nil {
		stop = DefaultStopwords
	}
	tokens := Tokenize(text)

	var phrases []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = strings.TrimSpace(p)
		if len(p) <= 2 || seen[p] {
			return
		}
		seen[p] = true
		phrases = append(phrases, p)
	}

	// Adjacent content-word bigrams.
	for i := 0; i+1 < len(tokens); i++ {
		a, b := tokens[i], tokens[i+1]
		if len(a) >= 3 && len(b) >= 3 && !stop[a] && !stop[b] {
			add(a + " " + b)
		}
	}

	// Context around emphasis indicators: two tokens before, four after.
	indicator := make(map[string]bool, len(EmphasisIndicators))
	for _, w := range EmphasisIndicators {
		if !strings.Contains(w, " ") {
			indicator[w] = true
		}
	}
	for i, tok := range tokens {
		if !indicator[tok] {
			continue
		}
		lo := max(0, i-2)
		hi := min(len(tokens), i+5)
		add(strings.Join(tokens[lo:hi], " "))
	}

	// Repeated substantial content words.
	counts := make(map[string]int)
	for _, tok := range tokens {
		if len(tok) >= 5 && !stop[tok] {
			counts[tok]++
		}
	}
	for _, tok := range tokens {
		if counts[tok] >= 2 {
			add(tok)
			counts[tok] = 0 // first appearance only
		}
	}

	return phrases
}
