package farm

import (
	"context"
	"image"
	"sync"
	"time"
)

// scriptedRecognizer returns pre-baked line sets in call order
type scriptedRecognizer struct {
	mu         sync.Mutex
	results    [][]string
	calls      int
	repeatLast bool
	err        error
}

func (f *scriptedRecognizer) RecognizeImage(_ context.Context, _ image.Image) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.results) {
		if f.repeatLast && len(f.results) > 0 {
			return f.results[len(f.results)-1], nil
		}
		return nil, nil
	}
	return f.results[idx], nil
}

// noPause skips settle delays so tests run at full speed
func noPause(ctx context.Context, _ time.Duration) bool {
	return ctx.Err() == nil
}

// stubRunner is a scriptable task runner for engine tests
type stubRunner struct {
	mu          sync.Mutex
	validateErr error
	pollResults []Classification
	pollErr     error
	pollPanic   bool
	polls       int
	acts        int
	actErr      error
}

func (s *stubRunner) Validate() error { return s.validateErr }

func (s *stubRunner) Poll(_ context.Context) (Classification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pollPanic {
		panic("scripted poll panic")
	}
	s.polls++
	if s.pollErr != nil {
		return Classification{State: StateUnknown}, s.pollErr
	}
	if len(s.pollResults) == 0 {
		return Classification{State: StateUnknown}, nil
	}
	idx := s.polls - 1
	if idx >= len(s.pollResults) {
		idx = len(s.pollResults) - 1
	}
	return s.pollResults[idx], nil
}

func (s *stubRunner) Act(_ context.Context, _ Classification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.actErr != nil {
		return s.actErr
	}
	s.acts++
	return nil
}

func (s *stubRunner) actCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acts
}
