package transcript

import (
	"testing"

	"orato/pkg/asr"
)

func TestStringMarkerFormat(t *testing.T) {
	t.Parallel()

	r := &asr.TranscriptionResult{Segments: []asr.Segment{{
		Start: 0, End: 10,
		Words: words(w("hello", 0, 1), w("world", 2.4, 3)),
	}}}
	a := Build(r, 10)

	got := a.String()
	want := "hello [1.4 second pause] world"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMarkerAlwaysOneDecimal(t *testing.T) {
	t.Parallel()

	// A 2.0s gap must print as "2.0", not "2".
	r := &asr.TranscriptionResult{Segments: []asr.Segment{{
		Start: 0, End: 10,
		Words: words(w("a", 0, 1), w("b", 3, 4)),
	}}}
	a := Build(r, 10)
	if got, want := a.String(), "a [2.0 second pause] b"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	r := &asr.TranscriptionResult{Segments: []asr.Segment{
		{Start: 0, End: 12, Words: words(w("so", 0, 0.3), w("today", 1.5, 2), w("we", 3.3, 3.6))},
		{Start: 15, End: 20, Words: words(w("finally", 15, 16))},
	}}
	a := Build(r, 20)

	serialized := a.String()
	parsed := ParseMarkers(serialized)

	if len(parsed) != len(a.Tokens) {
		t.Fatalf("round-trip token count = %d, want %d", len(parsed), len(a.Tokens))
	}
	for i, tok := range a.Tokens {
		p := parsed[i]
		switch {
		case tok.Word != nil:
			if p.Word == nil || p.Word.Text != tok.Word.Text {
				t.Errorf("token %d: want word %q, got %+v", i, tok.Word.Text, p)
			}
		case tok.Pause != nil:
			if p.Pause == nil || p.Pause.Duration != tok.Pause.Duration {
				t.Errorf("token %d: want pause %.1f, got %+v", i, tok.Pause.Duration, p)
			}
		}
	}

	// Re-serializing the parsed stream must be idempotent.
	var again Annotated
	again.Tokens = parsed
	if got := again.String(); got != serialized {
		t.Errorf("re-serialization not idempotent:\n  first:  %q\n  second: %q", serialized, got)
	}
}

func TestParseMarkersIgnoresLookalikes(t *testing.T) {
	t.Parallel()

	// Bracketed text that is not a well-formed marker stays words.
	toks := ParseMarkers("take a [long second pause] here")
	for _, tok := range toks {
		if tok.Pause != nil {
			t.Fatalf("malformed marker parsed as pause: %+v", tok)
		}
	}
}

func TestStripMarkers(t *testing.T) {
	t.Parallel()

	in := "hello [1.4 second pause] world [10.0 second pause] again"
	if got, want := StripMarkers(in), "hello world again"; got != want {
		t.Errorf("StripMarkers = %q, want %q", got, want)
	}
}
