package ratelimit

import "testing"

func TestAllowUnderLimit(t *testing.T) {
	l := New(3, 0, true)
	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("request %d denied under limit", i+1)
		}
	}
	if l.Allow() {
		t.Error("request over per-minute limit was allowed")
	}
}

func TestDisabledLimiterAlwaysAllows(t *testing.T) {
	l := New(1, 1, false)
	for i := 0; i < 10; i++ {
		if !l.Allow() {
			t.Fatal("disabled limiter denied a request")
		}
	}
}

func TestHourLimitIndependentOfMinuteLimit(t *testing.T) {
	l := New(0, 2, true)
	l.Allow()
	l.Allow()
	if l.Allow() {
		t.Error("request over per-hour limit was allowed")
	}
}

func TestResetClearsWindows(t *testing.T) {
	l := New(1, 0, true)
	l.Allow()
	if l.Allow() {
		t.Fatal("limit not enforced before reset")
	}
	l.Reset()
	if !l.Allow() {
		t.Error("request denied after Reset")
	}
}

func TestGetStats(t *testing.T) {
	l := New(5, 100, true)
	l.Allow()
	l.Allow()

	s := l.GetStats()
	if !s.Enabled || s.RequestsLastMinute != 2 || s.LimitPerMinute != 5 {
		t.Errorf("Stats = %+v", s)
	}
}
