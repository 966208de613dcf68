package guarded

import (
	"context"
	"errors"
	"testing"
	"time"

	"orato/pkg/embeddings/local"
	"orato/pkg/embeddings/mock"
)

var errBackend = errors.New("backend down")

func TestHealthyPrimaryServes(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{EmbedResult: []float32{1, 0}, ModelIDValue: "remote"}
	p := New(primary, local.New(0))

	vec, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("vector from fallback, want primary: %v", vec)
	}
	if p.ModelID() != "remote" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
}

func TestFailingPrimaryFallsBack(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{EmbedErr: errBackend, ModelIDValue: "remote"}
	p := New(primary, local.New(0))

	vecs, err := p.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{EmbedErr: errBackend, ModelIDValue: "remote"}
	p := New(primary, local.New(0), WithBreaker(3, time.Hour))

	for i := 0; i < 5; i++ {
		if _, err := p.Embed(context.Background(), "text"); err != nil {
			t.Fatalf("fallback must absorb primary failures: %v", err)
		}
	}

	// Three failures trip the breaker; later calls skip the primary.
	if got := len(primary.EmbedTexts); got != 3 {
		t.Errorf("primary called %d times, want 3 before the breaker opened", got)
	}
}

func TestBreakerRecoversAfterCooldown(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{EmbedErr: errBackend, EmbedResult: []float32{1}, ModelIDValue: "remote"}
	p := New(primary, local.New(0), WithBreaker(1, 10*time.Millisecond))

	if _, err := p.Embed(context.Background(), "first"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if p.breaker.allow() == nil {
		t.Fatal("breaker should be open right after tripping")
	}

	primary.EmbedErr = nil
	time.Sleep(20 * time.Millisecond)

	vec, err := p.Embed(context.Background(), "second")
	if err != nil {
		t.Fatalf("Embed after cooldown: %v", err)
	}
	if len(vec) != 1 {
		t.Errorf("probe did not reach the recovered primary: %v", vec)
	}
}

func TestContextCancellationBypassesFallback(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{EmbedErr: context.Canceled}
	p := New(primary, local.New(0))

	if _, err := p.Embed(context.Background(), "text"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled passed through", err)
	}
}
