package imagepipeline

import (
	"errors"
	"testing"
)

func TestRunReturnsTheJobResult(t *testing.T) {
	want := &Emote{ID: "abc"}
	got, err := run(func() (*Emote, error) { return want, nil })
	if err != nil {
		t.Fatalf("run returned an error: %v", err)
	}
	if got != want {
		t.Fatalf("run returned a different *Emote than the one produced by the job")
	}
}

func TestRunPropagatesJobError(t *testing.T) {
	wantErr := errors.New("decode exploded")
	_, err := run(func() (*Emote, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("run did not propagate the job's error")
	}
}

func TestRunHandlesManyConcurrentJobs(t *testing.T) {
	const n = 64
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			_, err := run(func() (*Emote, error) { return &Emote{ID: "x"}, nil })
			_ = i
			results <- err
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-results; err != nil {
			t.Fatalf("concurrent job %d failed: %v", i, err)
		}
	}
}
