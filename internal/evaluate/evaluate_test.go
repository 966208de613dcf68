package evaluate

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"orato/internal/config"
	"orato/internal/refdata"
	"orato/pkg/asr"
	asrmock "orato/pkg/asr/mock"
)

// writeTestWAV writes a one-second 16 kHz mono tone and returns its path.
func writeTestWAV(t *testing.T) string {
	t.Helper()

	const rate = 16000
	samples := make([]int16, rate)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*140*float64(i)/rate))
	}

	dataSize := len(samples) * 2
	buf := make([]byte, 0, 44+dataSize)
	hdr := make([]byte, 44)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataSize))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1)
	binary.LittleEndian.PutUint16(hdr[22:24], 1)
	binary.LittleEndian.PutUint32(hdr[24:28], rate)
	binary.LittleEndian.PutUint32(hdr[28:32], rate*2)
	binary.LittleEndian.PutUint16(hdr[32:34], 2)
	binary.LittleEndian.PutUint16(hdr[34:36], 16)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataSize))
	buf = append(buf, hdr...)
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
	}

	path := filepath.Join(t.TempDir(), "speech.wav")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write test wav: %v", err)
	}
	return path
}

func mockTranscription() *asr.TranscriptionResult {
	text := "today I want to talk about effective leadership in teams"
	fields := strings.Fields(text)
	words := make([]asr.WordToken, len(fields))
	for i, f := range fields {
		start := float64(i) * 0.09
		words[i] = asr.WordToken{Word: f, Start: start, End: start + 0.08, Confidence: 0.9}
	}
	return &asr.TranscriptionResult{Segments: []asr.Segment{{
		Start: 0, End: 1.0, Text: text, Words: words,
	}}}
}

func newEvaluator(t *testing.T, transcriber asr.Transcriber) *Evaluator {
	t.Helper()
	return New(config.Default(), transcriber, refdata.Builtin())
}

func TestEvaluateWithinRangeSpeech(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, &asrmock.Transcriber{Result: mockTranscription()})
	report, err := ev.Evaluate(context.Background(), Request{
		AudioPath:        writeTestWAV(t),
		Topic:            "effective leadership in teams",
		ExpectedDuration: "5-7 minutes",
		ActualDuration:   "06:00",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if report.FinalScore < 0 || report.FinalScore > 100 {
		t.Errorf("final_score = %d out of range", report.FinalScore)
	}
	if report.RequestID == "" {
		t.Error("request_id missing")
	}

	var timingReport *AnalyzerReport
	for i := range report.Analyzers {
		if report.Analyzers[i].AnalyzerID == config.AnalyzerTiming {
			timingReport = &report.Analyzers[i]
		}
	}
	if timingReport == nil {
		t.Fatal("timing result missing")
	}
	if timingReport.Metrics["status"] != "within_range" {
		t.Errorf("timing status = %v, want within_range", timingReport.Metrics["status"])
	}
	if timingReport.Score < 90 {
		t.Errorf("timing score = %d, want >= 90 at dead center", timingReport.Score)
	}
}

func TestEvaluateMissingTopicSkipsEffectiveness(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, &asrmock.Transcriber{Result: mockTranscription()})
	report, err := ev.Evaluate(context.Background(), Request{
		AudioPath:      writeTestWAV(t),
		SpeechType:     "Table Topics",
		ActualDuration: "01:30",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	for _, a := range report.Analyzers {
		if a.AnalyzerID == config.AnalyzerEffectiveness && a.Status != "skipped" {
			t.Errorf("effectiveness status = %q, want skipped without a topic", a.Status)
		}
	}
	if report.FinalScore <= 0 {
		t.Errorf("final_score = %d, want a usable score after redistribution", report.FinalScore)
	}
}

func TestEvaluateInputErrors(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, &asrmock.Transcriber{Result: mockTranscription()})

	tests := []struct {
		name string
		req  Request
	}{
		{"missing audio", Request{AudioPath: "/does/not/exist.wav"}},
		{"bad expected duration", Request{AudioPath: writeTestWAV(t), ExpectedDuration: "soon"}},
		{"bad actual duration", Request{AudioPath: writeTestWAV(t), ActualDuration: "6 minutes"}},
		{"unknown domain", Request{AudioPath: writeTestWAV(t), Domain: "astrology"}},
	}
	for _, tt := range tests {
		if _, err := ev.Evaluate(context.Background(), tt.req); !errors.Is(err, ErrInput) {
			t.Errorf("%s: err = %v, want ErrInput", tt.name, err)
		}
	}
}

func TestEvaluateTranscriptionFailure(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, &asrmock.Transcriber{Err: asr.ErrTranscription})
	_, err := ev.Evaluate(context.Background(), Request{AudioPath: writeTestWAV(t)})
	if !errors.Is(err, asr.ErrTranscription) {
		t.Errorf("err = %v, want wrapped transcription error", err)
	}
	if errors.Is(err, ErrInput) {
		t.Error("transcription failure misclassified as input error")
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	t.Parallel()

	path := writeTestWAV(t)
	req := Request{
		AudioPath:        path,
		Topic:            "effective leadership in teams",
		ExpectedDuration: "5-7 minutes",
		ActualDuration:   "06:00",
	}

	ev := newEvaluator(t, &asrmock.Transcriber{Result: mockTranscription()})
	first, err := ev.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := ev.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.FinalScore != second.FinalScore {
		t.Errorf("final_score differs: %d vs %d", first.FinalScore, second.FinalScore)
	}
	for id, score := range first.ComponentScores {
		if second.ComponentScores[id] != score {
			t.Errorf("component %s differs: %d vs %d", id, score, second.ComponentScores[id])
		}
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "06:00", want: 360},
		{in: "1:30", want: 90},
		{in: "00:45", want: 45},
		{in: "10:05", want: 605},
		{in: "00:00", wantErr: true},
		{in: "90", wantErr: true},
		{in: "1:75", wantErr: true},
		{in: "-1:30", wantErr: true},
		{in: "six:ten", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) = %g, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestRenderReport(t *testing.T) {
	t.Parallel()

	report := aggregate(config.Default(), allOK(82), nil)
	var sb strings.Builder
	report.Render(&sb)
	out := sb.String()
	if !strings.Contains(out, "Excellent") {
		t.Errorf("rendered report missing rating: %s", out)
	}
	if !strings.Contains(out, config.AnalyzerStructure) {
		t.Errorf("rendered report missing component rows: %s", out)
	}
}
