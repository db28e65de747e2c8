package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 10},
		{"default bucket size for negative", -1, 10},
		{"custom bucket size", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "downloading") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}

func TestProgressSamplerStatusChange(t *testing.T) {
	s := NewProgressSampler(10)

	if !s.ShouldLog(0, "downloading") {
		t.Error("first status should log")
	}
	if s.ShouldLog(0, " downloading ") {
		t.Error("same status and percent should not log again")
	}
	if !s.ShouldLog(100, "finished") {
		t.Error("status change should log")
	}
	if s.lastStatus != "finished" {
		t.Errorf("lastStatus = %q, want finished", s.lastStatus)
	}
}

func TestProgressSamplerPercentBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(0, "downloading")

	steps := []struct {
		percent float64
		want    bool
	}{
		{4.5, false},
		{10, true},
		{19.9, false},
		{45, true},
		{-1, false},
		{100, true},
		{130, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.percent, "downloading"); got != step.want {
			t.Fatalf("ShouldLog(%v) = %v, want %v", step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(50, "downloading")
	s.Reset()
	if s.lastStatus != "" || s.lastBucket != -1 {
		t.Fatalf("unexpected state after reset: %+v", s)
	}
	if !s.ShouldLog(50, "downloading") {
		t.Fatal("expected log after reset")
	}
}
