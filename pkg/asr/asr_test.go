package asr

import (
	"testing"
)

func TestRepairClampsOverlappingWords(t *testing.T) {
	t.Parallel()

	r := &TranscriptionResult{Segments: []Segment{{
		Start: 0, End: 3, Text: "a b c",
		Words: []WordToken{
			{Word: "a", Start: 0.0, End: 1.0},
			{Word: "b", Start: 0.8, End: 1.5}, // starts before previous end
			{Word: "c", Start: 1.5, End: 1.2}, // ends before it starts
		},
	}}}
	Repair(r)

	words := r.Segments[0].Words
	if words[1].Start != 1.0 {
		t.Errorf("words[1].Start = %v, want 1.0 (clamped to previous end)", words[1].Start)
	}
	if words[2].End != words[2].Start {
		t.Errorf("words[2].End = %v, want %v (clamped to own start)", words[2].End, words[2].Start)
	}
}

func TestRepairWidensSegmentToCoverWords(t *testing.T) {
	t.Parallel()

	r := &TranscriptionResult{Segments: []Segment{{
		Start: 1.0, End: 2.0,
		Words: []WordToken{
			{Word: "early", Start: 0.5, End: 1.2},
			{Word: "late", Start: 1.8, End: 2.6},
		},
	}}}
	Repair(r)

	seg := r.Segments[0]
	if seg.Start > seg.Words[0].Start {
		t.Errorf("segment start %v does not cover first word start %v", seg.Start, seg.Words[0].Start)
	}
	if seg.End < seg.Words[1].End {
		t.Errorf("segment end %v does not cover last word end %v", seg.End, seg.Words[1].End)
	}
}

func TestRepairOrdersSegments(t *testing.T) {
	t.Parallel()

	r := &TranscriptionResult{Segments: []Segment{
		{Start: 0, End: 5},
		{Start: 4, End: 6}, // overlaps previous
	}}
	Repair(r)

	if r.Segments[1].Start < r.Segments[0].End {
		t.Errorf("segments overlap after repair: %v < %v", r.Segments[1].Start, r.Segments[0].End)
	}
}

func TestTextAndWordCount(t *testing.T) {
	t.Parallel()

	r := &TranscriptionResult{Segments: []Segment{
		{Text: " Hello world ", Words: []WordToken{{Word: "Hello"}, {Word: "world"}}},
		{Text: "again", Words: []WordToken{{Word: "again"}}},
	}}
	if got, want := r.Text(), "Hello world again"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if got, want := r.WordCount(), 3; got != want {
		t.Errorf("WordCount() = %d, want %d", got, want)
	}
}

func TestMeanConfidence(t *testing.T) {
	t.Parallel()

	r := &TranscriptionResult{Segments: []Segment{
		{Words: []WordToken{{Word: "a", Confidence: 0.8}, {Word: "b", Confidence: 0.6}, {Word: "c"}}},
	}}
	mean, ok := r.MeanConfidence()
	if !ok {
		t.Fatal("expected confidence to be available")
	}
	if mean < 0.699 || mean > 0.701 {
		t.Errorf("mean confidence = %v, want 0.7", mean)
	}

	empty := &TranscriptionResult{}
	if _, ok := empty.MeanConfidence(); ok {
		t.Error("empty result should report no confidence")
	}
}
