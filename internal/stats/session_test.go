package stats

import (
	"sync"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{999 * time.Millisecond, "0:00:00"},
		{61 * time.Second, "0:01:01"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{25 * time.Hour, "25:00:00"},
		{-time.Second, "0:00:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestSession_ConcurrentQueries(t *testing.T) {
	s := NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.RecordQuery()
			}
		}()
	}
	wg.Wait()
	if s.QueryCount() != 1000 {
		t.Errorf("QueryCount = %d, want 1000", s.QueryCount())
	}
}

func TestSession_Snapshot(t *testing.T) {
	s := NewSession()
	s.now = func() time.Time { return s.start.Add(90 * time.Minute) }
	s.RecordQuery()
	snap := s.Snapshot()
	if snap.QueryCount != 1 || snap.SessionDuration != "1:30:00" {
		t.Errorf("snapshot = %+v", snap)
	}
}
