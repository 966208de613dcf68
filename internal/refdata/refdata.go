// Package refdata loads the process-wide reference tables shared read-only
// by all evaluation requests: word-frequency percentiles, stopword sets,
// and the pronunciation dictionary.
//
// Tables are loaded once at startup from a data directory and never mutated
// afterwards. Every file is optional; a missing file falls back to the
// built-in tables compiled into the binary, so an empty directory still
// yields a working Store. A present but corrupt file is an error.
package refdata

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"orato/internal/nlp"
)

// File names recognized inside the reference data directory.
const (
	WordFrequenciesFile = "word_frequencies.bin"
	PronunciationFile   = "pronunciation_dict.bin"
	stopwordsPattern    = "stopwords.%s.txt"
)

// ErrCorruptData reports a reference file that exists but cannot be parsed.
var ErrCorruptData = errors.New("refdata: corrupt reference file")

// Store holds the loaded reference tables. All methods are safe for
// concurrent use once Load returns; nothing writes to a Store afterwards.
type Store struct {
	frequencies   map[string]float64
	stopwords     map[string]bool
	pronunciation map[string][]string

	freqFromFile bool
	pronFromFile bool
}

// Load reads the reference tables from dir. An empty dir (or one that does
// not exist) produces a Store backed entirely by the built-in tables.
func Load(dir string, log *slog.Logger) (*Store, error) {
	return LoadLanguage(dir, "en", log)
}

// LoadLanguage is Load with an explicit stopword language code.
func LoadLanguage(dir, lang string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		stopwords: nlp.DefaultStopwords,
	}

	freq, err := loadWordFrequencies(filepath.Join(dir, WordFrequenciesFile))
	switch {
	case err == nil:
		s.frequencies = freq
		s.freqFromFile = true
		log.Debug("loaded word frequency table", "words", len(freq))
	case errors.Is(err, fs.ErrNotExist):
		log.Debug("word frequency table missing, using built-in tiers")
	default:
		return nil, err
	}

	pron, err := loadPronunciationDict(filepath.Join(dir, PronunciationFile))
	switch {
	case err == nil:
		s.pronunciation = pron
		s.pronFromFile = true
		log.Debug("loaded pronunciation dictionary", "words", len(pron))
	case errors.Is(err, fs.ErrNotExist):
		log.Debug("pronunciation dictionary missing, analyzers fall back to phonetic encoding")
	default:
		return nil, err
	}

	stop, err := loadStopwords(filepath.Join(dir, fmt.Sprintf(stopwordsPattern, lang)))
	switch {
	case err == nil:
		s.stopwords = stop
		log.Debug("loaded stopword list", "lang", lang, "words", len(stop))
	case errors.Is(err, fs.ErrNotExist):
		log.Debug("stopword list missing, using built-in set", "lang", lang)
	default:
		return nil, err
	}

	return s, nil
}

// Builtin returns a Store backed entirely by the compiled-in tables.
func Builtin() *Store {
	return &Store{stopwords: nlp.DefaultStopwords}
}

// Stopwords returns the active stopword set. Callers must not mutate it.
func (s *Store) Stopwords() map[string]bool { return s.stopwords }

// WordPercentile returns the frequency percentile of word in [0, 100],
// where higher means more common. When no frequency table was loaded the
// percentile is estimated from word shape, so the result is always usable.
func (s *Store) WordPercentile(word string) float64 {
	word = strings.ToLower(word)
	if s.freqFromFile {
		if p, ok := s.frequencies[word]; ok {
			return p
		}
		// Absent from a real table means genuinely rare.
		return 10
	}
	return estimatePercentile(word, s.stopwords)
}

// Pronunciation returns the phoneme sequence for word when the dictionary
// holds one. Analyzers without a dictionary entry fall back to phonetic
// encoding of the spelling.
func (s *Store) Pronunciation(word string) ([]string, bool) {
	if !s.pronFromFile {
		return nil, false
	}
	p, ok := s.pronunciation[strings.ToLower(word)]
	return p, ok
}

// HasPronunciationDict reports whether a real dictionary file was loaded.
func (s *Store) HasPronunciationDict() bool { return s.pronFromFile }

// estimatePercentile approximates a word-frequency percentile from word
// shape. Stopwords and short everyday words rank high; long words rank low.
// The bands align with the complexity tiers the content analyzer uses
// (>= 75 common, 50..75, 25..50, < 25 rare).
func estimatePercentile(word string, stop map[string]bool) float64 {
	switch {
	case stop[word] || nlp.BasicWords[word]:
		return 90
	case len(word) <= 4:
		return 80
	case len(word) <= 6:
		return 60
	case len(word) <= 8:
		return 40
	default:
		return 15
	}
}

func loadStopwords(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(strings.ToLower(sc.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out[w] = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("refdata: read %s: %w", filepath.Base(path), err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrCorruptData, filepath.Base(path))
	}
	return out, nil
}
