package refdata

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Binary reference files share a 16-byte little-endian header:
//
//	magic    [8]byte  file type tag
//	version  uint32   format version, currently 1
//	reserved uint32   must be zero
//
// The payload after the header is a uint32 entry count followed by the
// entries. Strings are a uint16 byte length plus UTF-8 bytes.
const (
	formatVersion = 1
	headerSize    = 16

	maxEntries = 4 << 20
	maxStrLen  = 256
)

var (
	magicWordFreq = [8]byte{'O', 'R', 'A', 'W', 'F', 'R', 'Q', 0}
	magicPronDict = [8]byte{'O', 'R', 'A', 'P', 'R', 'O', 'N', 0}
)

type fileHeader struct {
	Magic    [8]byte
	Version  uint32
	Reserved uint32
}

func readHeader(r io.Reader, want [8]byte, name string) error {
	var h fileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("%w: %s: short header", ErrCorruptData, name)
	}
	if h.Magic != want {
		return fmt.Errorf("%w: %s: bad magic %q", ErrCorruptData, name, h.Magic[:])
	}
	if h.Version != formatVersion {
		return fmt.Errorf("%w: %s: unsupported version %d", ErrCorruptData, name, h.Version)
	}
	if h.Reserved != 0 {
		return fmt.Errorf("%w: %s: nonzero reserved field", ErrCorruptData, name)
	}
	return nil
}

func writeHeader(w io.Writer, magic [8]byte) error {
	return binary.Write(w, binary.LittleEndian, fileHeader{Magic: magic, Version: formatVersion})
}

func readString(r io.Reader, name string) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: %s: truncated entry", ErrCorruptData, name)
	}
	if n == 0 || n > maxStrLen {
		return "", fmt.Errorf("%w: %s: string length %d out of range", ErrCorruptData, name, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %s: truncated entry", ErrCorruptData, name)
	}
	return string(buf), nil
}

func writeString(w io.Writer, s string) error {
	if len(s) == 0 || len(s) > maxStrLen {
		return fmt.Errorf("refdata: string length %d out of range", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readCount(r io.Reader, name string) (uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, fmt.Errorf("%w: %s: missing entry count", ErrCorruptData, name)
	}
	if n > maxEntries {
		return 0, fmt.Errorf("%w: %s: entry count %d out of range", ErrCorruptData, name, n)
	}
	return n, nil
}

// Word-frequency entry: string word, float32 percentile in [0, 100].
func loadWordFrequencies(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	name := filepath.Base(path)

	r := bufio.NewReader(f)
	if err := readHeader(r, magicWordFreq, name); err != nil {
		return nil, err
	}
	n, err := readCount(r, name)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, n)
	for i := uint32(0); i < n; i++ {
		word, err := readString(r, name)
		if err != nil {
			return nil, err
		}
		var pct float32
		if err := binary.Read(r, binary.LittleEndian, &pct); err != nil {
			return nil, fmt.Errorf("%w: %s: truncated entry", ErrCorruptData, name)
		}
		if pct < 0 || pct > 100 {
			return nil, fmt.Errorf("%w: %s: percentile %.1f out of range for %q", ErrCorruptData, name, pct, word)
		}
		out[word] = float64(pct)
	}
	return out, nil
}

// WriteWordFrequencies serializes a percentile table in the binary layout
// Load expects. Used by the data preparation tooling and tests.
func WriteWordFrequencies(w io.Writer, freq map[string]float64) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, magicWordFreq); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(freq))); err != nil {
		return err
	}
	for word, pct := range freq {
		if err := writeString(bw, word); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, float32(pct)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Pronunciation entry: string word, uint16 phoneme count, then that many
// phoneme strings.
func loadPronunciationDict(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	name := filepath.Base(path)

	r := bufio.NewReader(f)
	if err := readHeader(r, magicPronDict, name); err != nil {
		return nil, err
	}
	n, err := readCount(r, name)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, n)
	for i := uint32(0); i < n; i++ {
		word, err := readString(r, name)
		if err != nil {
			return nil, err
		}
		var np uint16
		if err := binary.Read(r, binary.LittleEndian, &np); err != nil {
			return nil, fmt.Errorf("%w: %s: truncated entry", ErrCorruptData, name)
		}
		if np == 0 || np > 64 {
			return nil, fmt.Errorf("%w: %s: phoneme count %d out of range for %q", ErrCorruptData, name, np, word)
		}
		phonemes := make([]string, np)
		for j := range phonemes {
			p, err := readString(r, name)
			if err != nil {
				return nil, err
			}
			phonemes[j] = p
		}
		out[word] = phonemes
	}
	return out, nil
}

// WritePronunciationDict serializes a pronunciation dictionary in the
// binary layout Load expects.
func WritePronunciationDict(w io.Writer, dict map[string][]string) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, magicPronDict); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(dict))); err != nil {
		return err
	}
	for word, phonemes := range dict {
		if err := writeString(bw, word); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(phonemes))); err != nil {
			return err
		}
		for _, p := range phonemes {
			if err := writeString(bw, p); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
