package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_AllowWithinBudget(t *testing.T) {
	rl := New(3, time.Minute)
	defer rl.Close()

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	// Farklı IP etkilenmez
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestLimiter_ResetClearsCounter(t *testing.T) {
	rl := New(2, time.Minute)
	defer rl.Close()

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	rl.Reset("1.2.3.4")
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestLimiter_WindowExpiry(t *testing.T) {
	rl := New(1, 20*time.Millisecond)
	defer rl.Close()

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestLimiter_RetryAfterSeconds(t *testing.T) {
	rl := New(1, time.Minute)
	defer rl.Close()

	assert.Equal(t, 0, rl.RetryAfterSeconds("1.2.3.4"))

	rl.Allow("1.2.3.4")
	got := rl.RetryAfterSeconds("1.2.3.4")
	assert.Greater(t, got, 0)
	assert.LessOrEqual(t, got, 61)
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "10.0.0.1:54321",
			want:       "10.0.0.1",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for chain takes first",
			remoteAddr: "10.0.0.1:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:54321",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ExtractIP(r))
		})
	}
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "45 second(s)", FormatRetryMessage(45))
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(120))
	assert.Equal(t, "1 minute(s)", FormatRetryMessage(90))
}
