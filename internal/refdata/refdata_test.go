package refdata

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyDirUsesBuiltins(t *testing.T) {
	t.Parallel()

	s, err := Load(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Stopwords()["the"] {
		t.Error("built-in stopwords missing 'the'")
	}
	if s.HasPronunciationDict() {
		t.Error("empty dir reported a pronunciation dictionary")
	}
	if p := s.WordPercentile("the"); p < 75 {
		t.Errorf("common word percentile = %v, want >= 75", p)
	}
	if p := s.WordPercentile("extraordinarily"); p >= 25 {
		t.Errorf("long word percentile = %v, want < 25", p)
	}
}

func TestLoadMissingDir(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "nope"), nil)
	if err != nil {
		t.Fatalf("Load on missing dir: %v", err)
	}
	if s == nil {
		t.Fatal("nil store")
	}
}

func TestWordFrequencyRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	freq := map[string]float64{
		"hello":         92.5,
		"serendipitous": 3.25,
	}
	var buf bytes.Buffer
	if err := WriteWordFrequencies(&buf, freq); err != nil {
		t.Fatalf("WriteWordFrequencies: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, WordFrequenciesFile), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p := s.WordPercentile("hello"); p != 92.5 {
		t.Errorf("WordPercentile(hello) = %v, want 92.5", p)
	}
	if p := s.WordPercentile("SERENDIPITOUS"); p != 3.25 {
		t.Errorf("WordPercentile is not case-insensitive: got %v", p)
	}
	// Absent from a loaded table means rare, not shape-estimated.
	if p := s.WordPercentile("zzzz"); p != 10 {
		t.Errorf("unknown word percentile = %v, want 10", p)
	}
}

func TestPronunciationRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dict := map[string][]string{
		"speech": {"S", "P", "IY", "CH"},
		"audio":  {"AO", "D", "IY", "OW"},
	}
	var buf bytes.Buffer
	if err := WritePronunciationDict(&buf, dict); err != nil {
		t.Fatalf("WritePronunciationDict: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, PronunciationFile), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.HasPronunciationDict() {
		t.Fatal("pronunciation dictionary not detected")
	}
	got, ok := s.Pronunciation("Speech")
	if !ok {
		t.Fatal("Pronunciation(speech) not found")
	}
	if len(got) != 4 || got[0] != "S" || got[3] != "CH" {
		t.Errorf("Pronunciation(speech) = %v", got)
	}
	if _, ok := s.Pronunciation("absent"); ok {
		t.Error("Pronunciation returned ok for a missing word")
	}
}

func TestLoadRejectsCorruptHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"short header", []byte("ORA")},
		{"bad magic", append([]byte("WRONGMG\x00"), make([]byte, 12)...)},
		{"bad version", func() []byte {
			b := append([]byte{}, magicWordFreq[:]...)
			return append(b, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
		}()},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, WordFrequenciesFile), tt.data, 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(dir, nil); !errors.Is(err, ErrCorruptData) {
				t.Errorf("Load = %v, want ErrCorruptData", err)
			}
		})
	}
}

func TestLoadRejectsTruncatedPayload(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteWordFrequencies(&buf, map[string]float64{"word": 50}); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	trunc := buf.Bytes()[:buf.Len()-3]
	if err := os.WriteFile(filepath.Join(dir, WordFrequenciesFile), trunc, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir, nil); !errors.Is(err, ErrCorruptData) {
		t.Errorf("Load = %v, want ErrCorruptData", err)
	}
}

func TestStopwordFileOverridesBuiltin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := "# comment\nfoo\nBAR\n\n"
	if err := os.WriteFile(filepath.Join(dir, "stopwords.en.txt"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	stop := s.Stopwords()
	if !stop["foo"] || !stop["bar"] {
		t.Errorf("stopword file entries missing: %v", stop)
	}
	if stop["the"] {
		t.Error("file-backed stopword set still contains built-in entries")
	}
}
