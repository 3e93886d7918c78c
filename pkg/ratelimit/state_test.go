package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestState_IsBlocked(t *testing.T) {
	tests := []struct {
		name        string
		state       State
		wantBlocked bool
	}{
		{"zero value", State{}, false},
		{"window open", State{BlockedUntil: time.Now().Add(time.Minute)}, true},
		{"window passed", State{BlockedUntil: time.Now().Add(-time.Second)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsBlocked(); got != tt.wantBlocked {
				t.Errorf("IsBlocked() = %v, want %v", got, tt.wantBlocked)
			}
			if tt.wantBlocked && tt.state.BlockedFor() <= 0 {
				t.Errorf("BlockedFor() = %v, want > 0", tt.state.BlockedFor())
			}
			if !tt.wantBlocked && tt.state.BlockedFor() != 0 {
				t.Errorf("BlockedFor() = %v, want 0", tt.state.BlockedFor())
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{"seconds", "15", 15 * time.Second, true},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, false},
		{"http date", now.Add(2 * time.Minute).Format(http.TimeFormat), 2 * time.Minute, true},
		{"date in the past", now.Add(-time.Minute).Format(http.TimeFormat), 0, true},
		{"capped", "3600", MaxBackoff, true},
		{"garbage", "later", 0, false},
		{"missing", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			got, ok := ParseRetryAfter(h, now)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseRetryAfter(%q) = (%v, %v), want (%v, %v)", tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
