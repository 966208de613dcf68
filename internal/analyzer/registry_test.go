package analyzer

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"orato/internal/observe"
	"orato/internal/transcript"
	"orato/pkg/asr"
)

// fakeAnalyzer is a scriptable analyzer for registry tests.
type fakeAnalyzer struct {
	id       string
	requires []Feature
	deflt    float64
	analyze  func(ctx context.Context, a *Artifacts) Result
}

func (f *fakeAnalyzer) ID() string            { return f.id }
func (f *fakeAnalyzer) Requires() []Feature   { return f.requires }
func (f *fakeAnalyzer) DefaultScore() float64 { return f.deflt }
func (f *fakeAnalyzer) Analyze(ctx context.Context, a *Artifacts) Result {
	return f.analyze(ctx, a)
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

func testArtifacts() *Artifacts {
	r := &asr.TranscriptionResult{Segments: []asr.Segment{{
		Start: 0, End: 5,
		Words: []asr.WordToken{{Word: "hello", Start: 0, End: 1}},
	}}}
	return &Artifacts{
		Transcription: r,
		Transcript:    transcript.Build(r, 5),
	}
}

func TestRunPreservesOrderAndScores(t *testing.T) {
	t.Parallel()

	mk := func(id string, score float64) Analyzer {
		return &fakeAnalyzer{
			id: id, deflt: 60,
			analyze: func(context.Context, *Artifacts) Result {
				return Result{Score: score, Status: StatusOK}
			},
		}
	}
	reg := NewRegistry(
		[]Analyzer{mk("a", 80), mk("b", 70), mk("c", 90)},
		WithMetrics(testMetrics(t)),
		WithWorkers(2),
	)

	results := reg.Run(context.Background(), testArtifacts())
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []struct {
		id    string
		score float64
	}{{"a", 80}, {"b", 70}, {"c", 90}} {
		if results[i].AnalyzerID != want.id || results[i].Score != want.score {
			t.Errorf("result %d = %s/%.0f, want %s/%.0f",
				i, results[i].AnalyzerID, results[i].Score, want.id, want.score)
		}
	}
}

func TestRunSkipsUnavailableFeatures(t *testing.T) {
	t.Parallel()

	ran := false
	reg := NewRegistry([]Analyzer{&fakeAnalyzer{
		id: "prosody", requires: []Feature{FeaturePitch}, deflt: 60,
		analyze: func(context.Context, *Artifacts) Result {
			ran = true
			return Result{Score: 100, Status: StatusOK}
		},
	}}, WithMetrics(testMetrics(t)))

	// No Features loader: pitch is unavailable.
	results := reg.Run(context.Background(), testArtifacts())
	if ran {
		t.Error("analyzer ran despite missing features")
	}
	if results[0].Status != StatusSkipped {
		t.Errorf("status = %q, want skipped", results[0].Status)
	}
	if results[0].Score != 60 {
		t.Errorf("skipped score = %.0f, want default 60", results[0].Score)
	}
}

func TestRunTimeoutProducesFailedDefault(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]Analyzer{&fakeAnalyzer{
		id: "slow", deflt: 70,
		analyze: func(ctx context.Context, _ *Artifacts) Result {
			<-ctx.Done()
			return Result{Score: 95, Status: StatusOK}
		},
	}}, WithMetrics(testMetrics(t)), WithTimeout(20*time.Millisecond))

	results := reg.Run(context.Background(), testArtifacts())
	if results[0].Status != StatusFailed {
		t.Fatalf("status = %q, want failed", results[0].Status)
	}
	if results[0].Score != 70 {
		t.Errorf("score = %.0f, want default 70", results[0].Score)
	}
	if results[0].Err == "" {
		t.Error("failed result carries no diagnostic")
	}
}

func TestRunRecoversPanics(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]Analyzer{
		&fakeAnalyzer{
			id: "bad", deflt: 60,
			analyze: func(context.Context, *Artifacts) Result {
				panic("boom")
			},
		},
		&fakeAnalyzer{
			id: "good", deflt: 60,
			analyze: func(context.Context, *Artifacts) Result {
				return Result{Score: 85, Status: StatusOK}
			},
		},
	}, WithMetrics(testMetrics(t)))

	results := reg.Run(context.Background(), testArtifacts())
	if results[0].Status != StatusFailed {
		t.Errorf("panicking analyzer status = %q, want failed", results[0].Status)
	}
	if results[1].Status != StatusOK || results[1].Score != 85 {
		t.Errorf("sibling analyzer affected by panic: %+v", results[1])
	}
}

func TestRunClampsScores(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]Analyzer{&fakeAnalyzer{
		id: "hot", deflt: 60,
		analyze: func(context.Context, *Artifacts) Result {
			return Result{Score: 140, Status: StatusOK}
		},
	}}, WithMetrics(testMetrics(t)))

	results := reg.Run(context.Background(), testArtifacts())
	if results[0].Score != 100 {
		t.Errorf("score = %.0f, want clamped to 100", results[0].Score)
	}
}

func TestArtifactsAvailable(t *testing.T) {
	t.Parallel()

	arts := testArtifacts()
	if !arts.Available(FeatureTranscript) {
		t.Error("transcript should be available")
	}
	if arts.Available(FeaturePitch) {
		t.Error("pitch should be unavailable without a feature loader")
	}
	if arts.Available(FeatureTopic) {
		t.Error("topic should be unavailable when empty")
	}
	arts.Meta.Topic = "leadership"
	if !arts.Available(FeatureTopic) {
		t.Error("topic should be available when set")
	}
	arts.Meta.SpeechType = "Ice Breaker Speech"
	if !arts.Available(FeatureExpectedDuration) {
		t.Error("expected duration should derive from speech type")
	}
}

func TestArtifactsDurationOverride(t *testing.T) {
	t.Parallel()

	arts := testArtifacts()
	if d := arts.Duration(); d != 5 {
		t.Errorf("Duration = %v, want 5 from transcript", d)
	}
	arts.Meta.ActualDuration = 330
	if d := arts.Duration(); d != 330 {
		t.Errorf("Duration = %v, want 330 from override", d)
	}
}
