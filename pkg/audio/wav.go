package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// errNotWAV marks files that do not carry a RIFF/WAVE signature. Probe uses
// it to decide whether to try the next format rather than fail the request.
var errNotWAV = errors.New("not a wav file")

// wavInfo is the result of walking the RIFF chunk list.
type wavInfo struct {
	audioFormat   uint16
	channels      int
	sampleRate    int
	bitsPerSample int
	dataSize      int64
	dataOffset    int64
}

// readWAVInfo walks the RIFF chunks of f and returns format and data-chunk
// geometry. It tolerates extra chunks (LIST, fact, ...) between fmt and data.
func readWAVInfo(f *os.File) (*wavInfo, error) {
	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return nil, errNotWAV
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, errNotWAV
	}

	info := &wavInfo{}
	var hdr [8]byte
	for {
		if _, err := io.ReadFull(f, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))

		switch id {
		case "fmt ":
			var fmtChunk [16]byte
			if _, err := io.ReadFull(f, fmtChunk[:]); err != nil {
				return nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			info.audioFormat = binary.LittleEndian.Uint16(fmtChunk[0:2])
			info.channels = int(binary.LittleEndian.Uint16(fmtChunk[2:4]))
			info.sampleRate = int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			info.bitsPerSample = int(binary.LittleEndian.Uint16(fmtChunk[14:16]))
			if size > 16 {
				if _, err := f.Seek(size-16, io.SeekCurrent); err != nil {
					return nil, fmt.Errorf("skip fmt extension: %w", err)
				}
			}
		case "data":
			pos, err := f.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, fmt.Errorf("locate data chunk: %w", err)
			}
			info.dataSize = size
			info.dataOffset = pos
			// data is usually last; stop walking.
			return info, nil
		default:
			// Chunks are word-aligned; odd sizes carry a pad byte.
			if size%2 == 1 {
				size++
			}
			if _, err := f.Seek(size, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("skip %q chunk: %w", id, err)
			}
		}
	}
	if info.sampleRate == 0 {
		return nil, errors.New("wav: missing fmt chunk")
	}
	return info, nil
}

func probeWAV(path string) (*Ref, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := readWAVInfo(f)
	if err != nil {
		return nil, err
	}
	if info.audioFormat != 1 && info.audioFormat != 3 {
		return nil, fmt.Errorf("wav: unsupported audio format tag %d", info.audioFormat)
	}
	if info.channels <= 0 || info.sampleRate < 8000 || info.bitsPerSample == 0 {
		return nil, fmt.Errorf("wav: implausible fmt chunk (channels=%d rate=%d bits=%d)",
			info.channels, info.sampleRate, info.bitsPerSample)
	}

	var duration float64
	if info.dataSize > 0 {
		bytesPerFrame := int64(info.channels * info.bitsPerSample / 8)
		if bytesPerFrame > 0 {
			frames := info.dataSize / bytesPerFrame
			duration = float64(frames) / float64(info.sampleRate)
		}
	} else {
		// Header gave no usable data size (streamed writers leave it zero).
		// Fall back to measuring the actual payload.
		st, err := f.Stat()
		if err == nil && info.dataOffset > 0 {
			payload := st.Size() - info.dataOffset
			bytesPerFrame := int64(info.channels * info.bitsPerSample / 8)
			if payload > 0 && bytesPerFrame > 0 {
				duration = float64(payload/bytesPerFrame) / float64(info.sampleRate)
			}
		}
	}

	return &Ref{
		Path:       path,
		Format:     FormatWAV,
		SampleRate: info.sampleRate,
		Channels:   info.channels,
		Duration:   duration,
	}, nil
}

// decodeWAV reads the data chunk and converts it to mono float32.
// Supports 16-bit PCM and 32-bit IEEE float payloads.
func decodeWAV(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: decode wav: %w", err)
	}
	defer f.Close()

	info, err := readWAVInfo(f)
	if err != nil {
		return nil, fmt.Errorf("audio: decode wav %q: %w", path, err)
	}
	if _, err := f.Seek(info.dataOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("audio: decode wav %q: %w", path, err)
	}

	var data []byte
	if info.dataSize > 0 {
		data = make([]byte, info.dataSize)
		if _, err := io.ReadFull(f, data); err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("audio: decode wav %q: %w", path, err)
		}
	} else {
		data, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("audio: decode wav %q: %w", path, err)
		}
	}

	switch {
	case info.audioFormat == 1 && info.bitsPerSample == 16:
		return pcm16ToFloat32Mono(data, info.channels), nil
	case info.audioFormat == 3 && info.bitsPerSample == 32:
		return float32LEToMono(data, info.channels), nil
	default:
		return nil, fmt.Errorf("audio: decode wav %q: unsupported sample layout (format=%d bits=%d)",
			path, info.audioFormat, info.bitsPerSample)
	}
}
