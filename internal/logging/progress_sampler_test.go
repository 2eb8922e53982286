package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
		{"small bucket size", 1, 1},
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
	if !s.ShouldLog(50, "separating", "message") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset() // should not panic
}

func TestProgressSamplerPhaseChange(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "loading model", "starting") {
		t.Error("first phase should log")
	}
	if s.ShouldLog(0, "loading model", "still starting") {
		t.Error("same phase and percent should not log again")
	}
	if !s.ShouldLog(0, "separating", "starting") {
		t.Error("different phase should log")
	}
	if s.lastPhase != "separating" {
		t.Errorf("lastPhase = %q, want separating", s.lastPhase)
	}
}

func TestProgressSamplerPercentBuckets(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "separating", "") {
		t.Error("0% should log")
	}
	if s.ShouldLog(3, "separating", "") {
		t.Error("3% should not log (same bucket)")
	}
	if !s.ShouldLog(5, "separating", "") {
		t.Error("5% should log (new bucket)")
	}
	if s.ShouldLog(7, "separating", "") {
		t.Error("7% should not log (same bucket)")
	}
	if !s.ShouldLog(10, "separating", "") {
		t.Error("10% should log (new bucket)")
	}
}

func TestProgressSamplerNegativePercent(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(-1, "unknown", "") {
		t.Error("first call should log even with negative percent")
	}
	if s.ShouldLog(-1, "unknown", "") {
		t.Error("negative percent should not trigger bucket logging")
	}
}

func TestProgressSamplerCaps100Percent(t *testing.T) {
	s := NewProgressSampler(5)

	s.ShouldLog(95, "separating", "")

	if !s.ShouldLog(100, "separating", "") {
		t.Error("100% should log")
	}
	if s.ShouldLog(105, "separating", "") {
		t.Error("105% should not log again (same as 100% bucket)")
	}
}

func TestProgressSamplerBucketResetOnPhaseChange(t *testing.T) {
	s := NewProgressSampler(5)

	s.ShouldLog(50, "loading model", "")
	s.ShouldLog(0, "separating", "")

	if !s.ShouldLog(10, "separating", "") {
		t.Error("10% should log after phase change reset bucket")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(5)
	s.ShouldLog(50, "separating", "")

	s.Reset()

	if s.lastPhase != "" {
		t.Errorf("lastPhase = %q, want empty after reset", s.lastPhase)
	}
	if s.lastBucket != -1 {
		t.Errorf("lastBucket = %d, want -1 after reset", s.lastBucket)
	}
	if !s.ShouldLog(50, "separating", "") {
		t.Error("should log after reset")
	}
}
